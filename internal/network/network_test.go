package network_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/network"
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

func tinyConfig() network.Config {
	cfg := network.DefaultConfig()
	cfg.BlocksPerStage = [4]int{1, 1, 1, 1}
	return cfg
}

func countTrainable[B tensor.Backend](params []*nn.Parameter[B]) int {
	return len(nn.TrainableParameters(params))
}

func TestBlockPanicsOnUnsupportedVariants(t *testing.T) {
	backend := cpu.NewSequential()

	assert.Panics(t, func() { network.NewResidualBlock(8, 8, 1, 2, 64, 1, true, backend) })
	assert.Panics(t, func() { network.NewResidualBlock(8, 8, 1, 1, 32, 1, true, backend) })
	assert.Panics(t, func() { network.NewResidualBlock(8, 8, 1, 1, 64, 2, true, backend) })
}

func TestBlockIdentityVsProjectionSkip(t *testing.T) {
	backend := cpu.NewSequential()

	same := network.NewResidualBlock(8, 8, 1, 1, 64, 1, true, backend)
	proj := network.NewResidualBlock(8, 16, 2, 1, 64, 1, true, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 8, 4, 4}, backend)
	assert.Equal(t, tensor.Shape{1, 8, 4, 4}, same.Forward(input).Shape())
	assert.Equal(t, tensor.Shape{1, 16, 2, 2}, proj.Forward(input).Shape())

	// projection skip carries two extra parameter tensors (conv + BN scale/shift)
	assert.Len(t, proj.Parameters(), len(same.Parameters())+3)
}

func TestBackboneFeatureShape(t *testing.T) {
	backend := cpu.NewSequential()
	bb := network.NewBackbone(tinyConfig(), backend)

	input := tensor.Randn[float32](tensor.Shape{2, 3, 16, 16}, backend)
	features := bb.Features(input)
	assert.Equal(t, tensor.Shape{2, network.FeatureDim}, features.Shape())
}

func TestBackboneNormalizedFeatures(t *testing.T) {
	backend := cpu.NewSequential()
	cfg := tinyConfig()
	cfg.NormalizeFeatures = true
	bb := network.NewBackbone(cfg, backend)
	bb.SetTraining(false)

	input := tensor.Randn[float32](tensor.Shape{1, 3, 16, 16}, backend)
	features := bb.Features(input)

	var norm float64
	for _, v := range features.Data() {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestCloneAndFreeze(t *testing.T) {
	backend := cpu.NewSequential()
	original := network.NewBackbone(tinyConfig(), backend)

	clone := original.CloneAndFreeze()

	assert.True(t, original.Frozen())
	assert.False(t, clone.Frozen())
	assert.Equal(t, 0, countTrainable(original.Parameters()))
	assert.Equal(t, len(clone.Parameters()), countTrainable(clone.Parameters()))

	// warm start: same values, independent storage
	op := original.Parameters()[0]
	cp := clone.Parameters()[0]
	require.NotSame(t, op.Tensor().Raw(), cp.Tensor().Raw())
	assert.Equal(t, op.Tensor().Data(), cp.Tensor().Data())

	op.Tensor().Data()[0] += 42
	assert.NotEqual(t, op.Tensor().Data()[0], cp.Tensor().Data()[0])
}

func TestFrozenBackboneStaysInEvalMode(t *testing.T) {
	backend := cpu.NewSequential()
	bb := network.NewBackbone(tinyConfig(), backend)
	bb.Freeze()

	bb.SetTraining(true)

	input := tensor.Randn[float32](tensor.Shape{1, 3, 16, 16}, backend)
	before := bb.Features(input).Data()
	after := bb.Features(input).Data()
	assert.Equal(t, before, after)
}

func TestEnsembleGrowth(t *testing.T) {
	backend := cpu.NewSequential()
	e := network.NewEnsemble(tinyConfig(), backend)

	first := e.AddBranch()
	_, err := e.AddHead(3)
	require.NoError(t, err)

	second := e.AddBranch()
	_, err = e.AddHead(2)
	require.NoError(t, err)

	assert.Equal(t, 2, e.NumBranches())
	assert.Equal(t, 2, e.NumHeads())
	assert.Equal(t, 5, e.NumClasses())

	assert.True(t, first.Frozen())
	assert.False(t, second.Frozen())

	// exactly the newest branch and newest head remain trainable
	trainableBranches := 0
	for i := 0; i < e.NumBranches(); i++ {
		if countTrainable(e.Branch(i).Parameters()) > 0 {
			trainableBranches++
		}
	}
	assert.Equal(t, 1, trainableBranches)
	assert.Equal(t, 0, countTrainable(e.Head(0).Parameters()))
	assert.Greater(t, countTrainable(e.Head(1).Parameters()), 0)
}

func TestAddHeadWithoutBranch(t *testing.T) {
	backend := cpu.NewSequential()
	e := network.NewEnsemble(tinyConfig(), backend)

	_, err := e.AddHead(3)
	assert.Error(t, err)

	e.AddBranch()
	_, err = e.AddHead(3)
	require.NoError(t, err)

	// a second head needs a second branch
	_, err = e.AddHead(3)
	assert.Error(t, err)
}

func TestAddHeadRejectsBadClassCount(t *testing.T) {
	backend := cpu.NewSequential()
	e := network.NewEnsemble(tinyConfig(), backend)
	e.AddBranch()

	_, err := e.AddHead(0)
	assert.Error(t, err)
}

func TestEnsembleForwardWidth(t *testing.T) {
	backend := cpu.NewSequential()
	e := network.NewEnsemble(tinyConfig(), backend)

	e.AddBranch()
	_, err := e.AddHead(3)
	require.NoError(t, err)
	e.AddBranch()
	_, err = e.AddHead(2)
	require.NoError(t, err)
	e.SetTraining(false)

	input := tensor.Randn[float32](tensor.Shape{2, 3, 16, 16}, backend)
	logits, features := e.ForwardWithFeatures(input)
	assert.Equal(t, tensor.Shape{2, 5}, logits.Shape())
	assert.Equal(t, tensor.Shape{2, 2 * network.FeatureDim}, features.Shape())
}

func TestEnsembleForwardDeterminism(t *testing.T) {
	backend := cpu.NewSequential()
	e := network.NewEnsemble(tinyConfig(), backend)

	e.AddBranch()
	_, err := e.AddHead(2)
	require.NoError(t, err)
	e.AddBranch()
	_, err = e.AddHead(2)
	require.NoError(t, err)
	e.SetTraining(false)

	input := tensor.Randn[float32](tensor.Shape{1, 3, 16, 16}, backend)
	first := e.Forward(input).Data()
	second := e.Forward(input).Data()
	assert.Equal(t, first, second)
}

func TestEnsembleLogitOrderMatchesCreationOrder(t *testing.T) {
	backend := cpu.NewSequential()
	e := network.NewEnsemble(tinyConfig(), backend)

	e.AddBranch()
	h0, err := e.AddHead(2)
	require.NoError(t, err)
	e.AddBranch()
	h1, err := e.AddHead(2)
	require.NoError(t, err)
	e.SetTraining(false)

	// pin the head outputs: bias-only logits after zeroing the weights
	zero := func(h network.Head[*cpu.Backend], bias []float32) {
		for _, p := range h.Parameters() {
			for i := range p.Tensor().Data() {
				p.Tensor().Data()[i] = 0
			}
		}
		copy(h.Parameters()[1].Tensor().Data(), bias)
	}
	zero(h0, []float32{1, 2})
	zero(h1, []float32{3, 4})

	input := tensor.Randn[float32](tensor.Shape{1, 3, 16, 16}, backend)
	logits := e.Forward(input)
	assert.InDeltaSlice(t, []float32{1, 2, 3, 4}, logits.Data(), 1e-5)
}

func TestFactoryDatasets(t *testing.T) {
	tests := []struct {
		dataset string
		classes int
	}{
		{"cifar10", 10},
		{"cifar100", 100},
		{"imagenet", 1000},
		{"vggface2-1k", 1000},
		{"vggface2-5k", 5000},
		{"landmarks-10k", 10000},
	}
	for _, tt := range tests {
		n, err := network.NumClasses(tt.dataset)
		require.NoError(t, err)
		assert.Equal(t, tt.classes, n)
	}

	_, err := network.NumClasses("mnist")
	assert.Error(t, err)
}

func TestConfigForMode(t *testing.T) {
	cfg := network.ConfigFor(network.Mode{CosineHead: true, SuppressFinalActivation: true})
	assert.Equal(t, network.HeadNormalized, cfg.Head)
	assert.True(t, cfg.NormalizeFeatures)
	assert.True(t, cfg.SuppressFinalActivation)

	plain := network.ConfigFor(network.Mode{})
	assert.Equal(t, network.HeadLinear, plain.Head)
	assert.False(t, plain.NormalizeFeatures)
}
