package nn

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// BatchNorm2D normalizes [N, C, H, W] activations per channel.
//
// Training mode uses batch statistics and maintains running estimates;
// evaluation mode applies the running estimates. Frozen branches run in
// evaluation mode so their normalization stops drifting.
type BatchNorm2D[B tensor.Backend] struct {
	gamma       *Parameter[B] // scale, [C]
	beta        *Parameter[B] // shift, [C]
	runningMean *tensor.Tensor[float32, B]
	runningVar  *tensor.Tensor[float32, B]
	momentum    float32
	eps         float32
	training    bool
	backend     B
}

// NewBatchNorm2D creates a batch normalization layer for numFeatures channels.
func NewBatchNorm2D[B tensor.Backend](numFeatures int, backend B) *BatchNorm2D[B] {
	if numFeatures <= 0 {
		panic(fmt.Sprintf("batchnorm2d: invalid feature count %d", numFeatures))
	}
	shape := tensor.Shape{numFeatures}
	return &BatchNorm2D[B]{
		gamma:       NewParameter("gamma", tensor.Ones[float32](shape, backend)),
		beta:        NewParameter("beta", tensor.Zeros[float32](shape, backend)),
		runningMean: tensor.Zeros[float32](shape, backend),
		runningVar:  tensor.Ones[float32](shape, backend),
		momentum:    0.1,
		eps:         1e-5,
		training:    true,
		backend:     backend,
	}
}

// Forward normalizes the input.
func (m *BatchNorm2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _, _ := m.backend.BatchNorm2D(
		input.Raw(),
		m.gamma.Tensor().Raw(), m.beta.Tensor().Raw(),
		m.runningMean.Raw(), m.runningVar.Raw(),
		m.momentum, m.eps, m.training,
	)
	return tensor.New[float32, B](out, m.backend)
}

// Parameters returns gamma and beta. Running statistics are state, not
// parameters, and never receive gradients.
func (m *BatchNorm2D[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{m.gamma, m.beta}
}

// SetTraining switches between batch and running statistics.
func (m *BatchNorm2D[B]) SetTraining(training bool) {
	m.training = training
}

// Training reports the current mode.
func (m *BatchNorm2D[B]) Training() bool {
	return m.training
}

// RunningStats returns the running mean and variance tensors.
func (m *BatchNorm2D[B]) RunningStats() (mean, variance *tensor.Tensor[float32, B]) {
	return m.runningMean, m.runningVar
}

// CloneStatsFrom copies another layer's running statistics into this one.
// Used when warm-starting a new branch from a frozen one.
func (m *BatchNorm2D[B]) CloneStatsFrom(other *BatchNorm2D[B]) {
	copy(m.runningMean.Data(), other.runningMean.Data())
	copy(m.runningVar.Data(), other.runningVar.Data())
}
