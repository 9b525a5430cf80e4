// Package nn provides neural network building blocks.
package nn

import "github.com/grownet-ml/grownet/internal/tensor"

// Module is the interface all network components implement.
type Module[B tensor.Backend] interface {
	// Forward computes the module output for the given input.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of the module, frozen or not.
	Parameters() []*Parameter[B]
}

// TrainingMode is implemented by modules whose forward behavior differs
// between training and evaluation (BatchNorm2D and containers thereof).
type TrainingMode interface {
	SetTraining(training bool)
}

// TrainableParameters filters a parameter list down to the parameters that
// still receive gradient updates.
func TrainableParameters[B tensor.Backend](params []*Parameter[B]) []*Parameter[B] {
	out := make([]*Parameter[B], 0, len(params))
	for _, p := range params {
		if p.Trainable() {
			out = append(out, p)
		}
	}
	return out
}
