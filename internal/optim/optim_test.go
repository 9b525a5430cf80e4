package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/optim"
	"github.com/grownet-ml/grownet/internal/tensor"
)

func param(t *testing.T, backend *cpu.Backend, name string, values []float32) *nn.Parameter[*cpu.Backend] {
	t.Helper()
	w, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return nn.NewParameter(name, w)
}

func gradFor(t *testing.T, p *nn.Parameter[*cpu.Backend], values []float32) map[*tensor.RawTensor]*tensor.RawTensor {
	t.Helper()
	g, err := tensor.NewRaw(tensor.Shape{len(values)}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(g.AsFloat32(), values)
	return map[*tensor.RawTensor]*tensor.RawTensor{p.Tensor().Raw(): g}
}

func TestSGDStep(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{1, 2})
	opt := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0.1})

	opt.Step(gradFor(t, p, []float32{10, -10}))
	assert.InDeltaSlice(t, []float32{0, 3}, p.Tensor().Data(), 1e-6)
}

func TestSGDMomentum(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{0})
	opt := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 1, Momentum: 0.5})

	// v1 = 1, w = -1; v2 = 0.5 + 1 = 1.5, w = -2.5
	opt.Step(gradFor(t, p, []float32{1}))
	assert.InDelta(t, -1, p.Tensor().Data()[0], 1e-6)
	opt.Step(gradFor(t, p, []float32{1}))
	assert.InDelta(t, -2.5, p.Tensor().Data()[0], 1e-6)
}

func TestSGDWeightDecay(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{10})
	opt := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0.1, WeightDecay: 0.1})

	// effective grad = 0 + 0.1*10 = 1
	opt.Step(gradFor(t, p, []float32{0}))
	assert.InDelta(t, 9.9, p.Tensor().Data()[0], 1e-6)
}

func TestSGDSkipsFrozen(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{1})
	p.Freeze()
	opt := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0.1})

	opt.Step(gradFor(t, p, []float32{100}))
	assert.Equal(t, []float32{1}, p.Tensor().Data())
}

func TestSGDSkipsMissingGradient(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{1})
	opt := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0.1})

	opt.Step(map[*tensor.RawTensor]*tensor.RawTensor{})
	assert.Equal(t, []float32{1}, p.Tensor().Data())
}

func TestSGDPanicsOnBadConfig(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{1})

	assert.Panics(t, func() { optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0}) })
	assert.Panics(t, func() { optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0.1, Momentum: 1}) })
}

func TestAdamStep(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{1, 1})
	opt := optim.NewAdam([]*nn.Parameter[*cpu.Backend]{p}, optim.AdamConfig{LR: 0.1})

	// first bias-corrected step moves each weight by about lr toward the
	// negative gradient direction
	opt.Step(gradFor(t, p, []float32{1, -1}))
	assert.InDelta(t, 0.9, p.Tensor().Data()[0], 1e-4)
	assert.InDelta(t, 1.1, p.Tensor().Data()[1], 1e-4)
}

func TestLearningRateSchedule(t *testing.T) {
	backend := cpu.NewSequential()
	p := param(t, backend, "w", []float32{1})
	opt := optim.NewSGD([]*nn.Parameter[*cpu.Backend]{p}, optim.SGDConfig{LR: 0.1})

	assert.Equal(t, float32(0.1), opt.LearningRate())
	opt.SetLearningRate(0.01)
	assert.Equal(t, float32(0.01), opt.LearningRate())
}
