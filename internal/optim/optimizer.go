// Package optim provides gradient-descent optimizers.
//
// Optimizers operate on nn parameters and consume gradient maps produced
// by autodiff tape backward passes, keyed by the raw tensor of each
// parameter. Frozen parameters are skipped by every optimizer.
package optim

import (
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Optimizer updates parameters from gradients.
type Optimizer[B tensor.Backend] interface {
	// Step applies one update using the gradients keyed by parameter
	// raw tensor. Parameters without a gradient entry are left alone.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears cached gradients on the managed parameters.
	ZeroGrad()

	// LearningRate returns the current learning rate.
	LearningRate() float32

	// SetLearningRate changes the learning rate, for schedules.
	SetLearningRate(lr float32)
}

// gradientFor looks up the gradient recorded for a parameter.
func gradientFor[B tensor.Backend](
	param *nn.Parameter[B],
	grads map[*tensor.RawTensor]*tensor.RawTensor,
) (*tensor.RawTensor, bool) {
	g, ok := grads[param.Tensor().Raw()]
	return g, ok
}
