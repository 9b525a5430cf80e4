package nn_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/autodiff"
	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

func TestLinearForward(t *testing.T) {
	backend := cpu.NewSequential()
	layer := nn.NewLinear(2, 3, true, backend)

	copy(layer.Weight().Tensor().Data(), []float32{1, 0, 0, 1, 1, 1})
	copy(layer.Parameters()[1].Tensor().Data(), []float32{10, 20, 30})

	input, err := tensor.FromSlice([]float32{2, 5}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	out := layer.Forward(input)
	assert.Equal(t, tensor.Shape{1, 3}, out.Shape())
	assert.Equal(t, []float32{12, 25, 37}, out.Data())
}

func TestLinearPanicsOnBadDims(t *testing.T) {
	backend := cpu.NewSequential()
	assert.Panics(t, func() { nn.NewLinear(0, 3, true, backend) })
	assert.Panics(t, func() { nn.NewLinear(3, -1, true, backend) })
}

func TestConv2DOutputShape(t *testing.T) {
	backend := cpu.NewSequential()
	conv := nn.NewConv2D(3, 8, 3, 2, 1, false, backend)

	input := tensor.Randn[float32](tensor.Shape{2, 3, 8, 8}, backend)
	out := conv.Forward(input)
	assert.Equal(t, tensor.Shape{2, 8, 4, 4}, out.Shape())
}

func TestBatchNorm2DModes(t *testing.T) {
	backend := cpu.NewSequential()
	bn := nn.NewBatchNorm2D(1, backend)
	require.True(t, bn.Training())

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	bn.Forward(input)
	mean, _ := bn.RunningStats()
	assert.InDelta(t, 0.25, mean.Data()[0], 1e-6)

	// evaluation leaves the running stats alone
	bn.SetTraining(false)
	bn.Forward(input)
	assert.InDelta(t, 0.25, mean.Data()[0], 1e-6)
}

func TestL2Normalize(t *testing.T) {
	backend := cpu.NewSequential()
	x, err := tensor.FromSlice([]float32{3, 4, 0, 5}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	normed := nn.L2Normalize(x)
	assert.InDeltaSlice(t, []float32{0.6, 0.8, 0, 1}, normed.Data(), 1e-5)
}

func TestL2NormalizeLeavesInputIntact(t *testing.T) {
	backend := cpu.NewSequential()
	x, err := tensor.FromSlice([]float32{3, 4, 0, 5}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	// x feeds the norm computation twice; normalizing must not write
	// intermediate squares back into it
	normed := nn.L2Normalize(x)
	assert.Equal(t, []float32{3, 4, 0, 5}, x.Data())
	assert.InDeltaSlice(t, []float32{0.6, 0.8, 0, 1}, normed.Data(), 1e-5)
}

func TestNormedLinearCosineLogits(t *testing.T) {
	backend := cpu.NewSequential()
	head := nn.NewNormedLinear(2, 1, backend)
	copy(head.Weight().Tensor().Data(), []float32{1, 0})

	input, err := tensor.FromSlice([]float32{5, 0, 0, 2}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := head.Forward(input)
	// cosine of aligned and orthogonal vectors
	assert.InDeltaSlice(t, []float32{1, 0}, out.Data(), 1e-5)
}

func TestParameterFreeze(t *testing.T) {
	backend := cpu.NewSequential()
	p := nn.NewParameter("w", tensor.Ones[float32](tensor.Shape{2}, backend))
	q := nn.NewParameter("b", tensor.Ones[float32](tensor.Shape{2}, backend))

	p.Freeze()
	trainable := nn.TrainableParameters([]*nn.Parameter[*cpu.Backend]{p, q})
	require.Len(t, trainable, 1)
	assert.Equal(t, "b", trainable[0].Name())

	clone := p.DeepClone()
	assert.True(t, clone.Trainable())
	assert.NotSame(t, p.Tensor().Raw(), clone.Tensor().Raw())
}

func TestCrossEntropyLoss(t *testing.T) {
	backend := autodiff.New(cpu.NewSequential())
	loss := nn.NewCrossEntropyLoss(backend)

	logits, err := tensor.FromSlice([]float32{0, 0, 0, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int32{0, 1}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	out := loss.Forward(logits, targets)
	assert.Equal(t, tensor.Shape{1}, out.Shape())
	assert.InDelta(t, math.Log(2), float64(out.Item()), 1e-6)
}

func TestCrossEntropyLossNeedsGradientBackend(t *testing.T) {
	backend := cpu.NewSequential()
	loss := nn.NewCrossEntropyLoss(backend)

	logits := tensor.Zeros[float32](tensor.Shape{1, 2}, backend)
	targets := tensor.Zeros[int32](tensor.Shape{1}, backend)
	assert.Panics(t, func() { loss.Forward(logits, targets) })
}
