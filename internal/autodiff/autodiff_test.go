package autodiff_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/autodiff"
	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/tensor"
)

type adBackend = *autodiff.AutodiffBackend[*cpu.Backend]

func newBackend() adBackend {
	return autodiff.New(cpu.NewSequential())
}

func from(t *testing.T, b adBackend, data []float32, shape tensor.Shape) *tensor.Tensor[float32, adBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, b)
	require.NoError(t, err)
	return x
}

func onesGrad(b adBackend, shape tensor.Shape) *tensor.RawTensor {
	return tensor.Ones[float32](shape, b).Raw()
}

func TestMulGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2, 3}, tensor.Shape{3})
	y := from(t, b, []float32{4, 5, 6}, tensor.Shape{3})

	b.Tape().StartRecording()
	x.Mul(y)

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{3}), b)
	assert.Equal(t, []float32{4, 5, 6}, grads[x.Raw()].AsFloat32())
	assert.Equal(t, []float32{1, 2, 3}, grads[y.Raw()].AsFloat32())
}

func TestMatMulGrad(t *testing.T) {
	b := newBackend()
	a := from(t, b, []float32{1, 2}, tensor.Shape{1, 2})
	w := from(t, b, []float32{3, 4}, tensor.Shape{2, 1})

	b.Tape().StartRecording()
	out := a.MatMul(w)
	assert.Equal(t, []float32{11}, out.Data())

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1, 1}), b)
	assert.Equal(t, []float32{3, 4}, grads[a.Raw()].AsFloat32())
	assert.Equal(t, []float32{1, 2}, grads[w.Raw()].AsFloat32())
}

func TestReLUGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{-1, 2}, tensor.Shape{2})

	b.Tape().StartRecording()
	tensor.New[float32, adBackend](b.ReLU(x.Raw()), b)

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{2}), b)
	assert.Equal(t, []float32{0, 1}, grads[x.Raw()].AsFloat32())
}

func TestNarrowGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2, 3, 4}, tensor.Shape{1, 4})

	b.Tape().StartRecording()
	x.Narrow(1, 1, 2)

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1, 2}), b)
	assert.Equal(t, []float32{0, 1, 1, 0}, grads[x.Raw()].AsFloat32())
}

func TestIndexSelectGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{3, 2})
	idx, err := tensor.FromSlice([]int32{1, 1}, tensor.Shape{2}, b)
	require.NoError(t, err)

	b.Tape().StartRecording()
	b.IndexSelect(x.Raw(), 0, idx.Raw())

	// row 1 selected twice accumulates both output rows
	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{2, 2}), b)
	assert.Equal(t, []float32{0, 0, 2, 2, 0, 0}, grads[x.Raw()].AsFloat32())
}

func TestSumDimGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	b.Tape().StartRecording()
	x.SumDim(1, true)

	outGrad := from(t, b, []float32{2, 3}, tensor.Shape{2, 1})
	grads := b.Tape().Backward(outGrad.Raw(), b)
	assert.Equal(t, []float32{2, 2, 2, 3, 3, 3}, grads[x.Raw()].AsFloat32())
}

func TestSqrtGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{4, 9}, tensor.Shape{2})

	b.Tape().StartRecording()
	x.Sqrt()

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{2}), b)
	assert.InDeltaSlice(t, []float32{0.25, 1.0 / 6.0}, grads[x.Raw()].AsFloat32(), 1e-6)
}

func TestCatGrad(t *testing.T) {
	b := newBackend()
	a := from(t, b, []float32{1, 2}, tensor.Shape{1, 2})
	c := from(t, b, []float32{3, 4}, tensor.Shape{1, 2})

	b.Tape().StartRecording()
	tensor.Cat([]*tensor.Tensor[float32, adBackend]{a, c}, 1)

	outGrad := from(t, b, []float32{1, 2, 3, 4}, tensor.Shape{1, 4})
	grads := b.Tape().Backward(outGrad.Raw(), b)
	assert.Equal(t, []float32{1, 2}, grads[a.Raw()].AsFloat32())
	assert.Equal(t, []float32{3, 4}, grads[c.Raw()].AsFloat32())
}

func TestGlobalAvgPool2DGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})

	b.Tape().StartRecording()
	b.GlobalAvgPool2D(x.Raw())

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1, 1}), b)
	assert.InDeltaSlice(t, []float32{0.25, 0.25, 0.25, 0.25}, grads[x.Raw()].AsFloat32(), 1e-6)
}

func TestMaxPool2DGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 3, 2, 4}, tensor.Shape{1, 1, 2, 2})

	b.Tape().StartRecording()
	b.MaxPool2D(x.Raw(), 2, 2, 0)

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1, 1, 1, 1}), b)
	assert.Equal(t, []float32{0, 0, 0, 1}, grads[x.Raw()].AsFloat32())
}

func TestConv2DGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2})
	k := from(t, b, []float32{2}, tensor.Shape{1, 1, 1, 1})

	b.Tape().StartRecording()
	out := tensor.New[float32, adBackend](b.Conv2D(x.Raw(), k.Raw(), 1, 0), b)
	assert.Equal(t, []float32{2, 4, 6, 8}, out.Data())

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1, 1, 2, 2}), b)
	assert.Equal(t, []float32{2, 2, 2, 2}, grads[x.Raw()].AsFloat32())
	assert.Equal(t, []float32{10}, grads[k.Raw()].AsFloat32())
}

func TestBatchNorm2DEvalGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2}, tensor.Shape{1, 1, 1, 2})
	gamma := from(t, b, []float32{3}, tensor.Shape{1})
	beta := from(t, b, []float32{0}, tensor.Shape{1})
	runningMean := from(t, b, []float32{0}, tensor.Shape{1})
	runningVar := from(t, b, []float32{1}, tensor.Shape{1})

	b.Tape().StartRecording()
	out, _, _ := b.BatchNorm2D(x.Raw(), gamma.Raw(), beta.Raw(),
		runningMean.Raw(), runningVar.Raw(), 0.1, 0, false)
	assert.InDeltaSlice(t, []float32{3, 6}, out.AsFloat32(), 1e-5)

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1, 1, 1, 2}), b)
	assert.InDeltaSlice(t, []float32{3, 3}, grads[x.Raw()].AsFloat32(), 1e-5)
	assert.InDeltaSlice(t, []float32{3}, grads[gamma.Raw()].AsFloat32(), 1e-5)
	assert.InDeltaSlice(t, []float32{2}, grads[beta.Raw()].AsFloat32(), 1e-5)
}

func TestCrossEntropyGrad(t *testing.T) {
	b := newBackend()
	logits := from(t, b, []float32{0, 0}, tensor.Shape{1, 2})
	targets, err := tensor.FromSlice([]int32{0}, tensor.Shape{1}, b)
	require.NoError(t, err)

	b.Tape().StartRecording()
	loss := b.CrossEntropy(logits.Raw(), targets.Raw())
	assert.InDelta(t, math.Log(2), float64(loss.AsFloat32()[0]), 1e-6)

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1}), b)
	assert.InDeltaSlice(t, []float32{-0.5, 0.5}, grads[logits.Raw()].AsFloat32(), 1e-6)
}

func TestChainedGrad(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{2}, tensor.Shape{1})
	y := from(t, b, []float32{3}, tensor.Shape{1})

	b.Tape().StartRecording()
	z := x.Mul(y).Add(x) // z = x*y + x, dz/dx = y + 1, dz/dy = x
	assert.Equal(t, []float32{8}, z.Data())

	grads := b.Tape().Backward(onesGrad(b, tensor.Shape{1}), b)
	assert.Equal(t, []float32{4}, grads[x.Raw()].AsFloat32())
	assert.Equal(t, []float32{2}, grads[y.Raw()].AsFloat32())
}

func TestNoRecordingWhenStopped(t *testing.T) {
	b := newBackend()
	x := from(t, b, []float32{1, 2}, tensor.Shape{2})
	y := from(t, b, []float32{3, 4}, tensor.Shape{2})

	assert.False(t, b.IsRecording())
	x.Mul(y)
	assert.Equal(t, 0, b.Tape().NumOps())

	b.Tape().StartRecording()
	assert.True(t, b.IsRecording())
	x.Mul(y)
	assert.Equal(t, 1, b.Tape().NumOps())

	b.Tape().StopRecording()
	b.Tape().Clear()
	assert.Equal(t, 0, b.Tape().NumOps())
}
