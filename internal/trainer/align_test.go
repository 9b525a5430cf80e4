package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/network"
)

func twoHeadEnsemble(t *testing.T) *network.Ensemble[*cpu.Backend] {
	t.Helper()
	cfg := network.DefaultConfig()
	cfg.BlocksPerStage = [4]int{1, 1, 1, 1}
	e := network.NewEnsemble(cfg, cpu.NewSequential())

	e.AddBranch()
	_, err := e.AddHead(2)
	require.NoError(t, err)
	e.AddBranch()
	_, err = e.AddHead(2)
	require.NoError(t, err)
	return e
}

func fillWeight(e *network.Ensemble[*cpu.Backend], head int, value float32) {
	data := e.Head(head).Weight().Tensor().Data()
	for i := range data {
		data[i] = value
	}
}

func TestAlignWeightsRescalesNewestHead(t *testing.T) {
	e := twoHeadEnsemble(t)
	fillWeight(e, 0, 2.0)
	fillWeight(e, 1, 0.5)

	biasBefore := append([]float32(nil), e.Head(1).Parameters()[1].Tensor().Data()...)

	require.NoError(t, AlignWeights(e))

	// every uniform row scales by meanPrev/meanNew = 4
	for _, v := range e.Head(1).Weight().Tensor().Data() {
		assert.InDelta(t, 2.0, v, 1e-5)
	}
	// prior heads and biases are untouched
	for _, v := range e.Head(0).Weight().Tensor().Data() {
		assert.InDelta(t, 2.0, v, 1e-6)
	}
	assert.Equal(t, biasBefore, e.Head(1).Parameters()[1].Tensor().Data())
}

func TestAlignWeightsDegenerateHeadIsNoOp(t *testing.T) {
	e := twoHeadEnsemble(t)
	fillWeight(e, 0, 1.0)
	fillWeight(e, 1, 0)

	require.NoError(t, AlignWeights(e))
	for _, v := range e.Head(1).Weight().Tensor().Data() {
		assert.Equal(t, float32(0), v)
	}
}

func TestAlignWeightsNeedsPriorTask(t *testing.T) {
	cfg := network.DefaultConfig()
	cfg.BlocksPerStage = [4]int{1, 1, 1, 1}
	e := network.NewEnsemble(cfg, cpu.NewSequential())

	assert.Error(t, AlignWeights(e))

	e.AddBranch()
	_, err := e.AddHead(2)
	require.NoError(t, err)
	assert.Error(t, AlignWeights(e))
}
