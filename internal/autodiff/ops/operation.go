// Package ops defines the recorded operations used by reverse-mode autodiff.
//
// Each operation captures its inputs and output during the forward pass and
// knows how to turn an output gradient into input gradients.
package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// Operation is one recorded step of the forward computation.
type Operation interface {
	// Backward computes gradients for the operation's inputs, in the same
	// order as Inputs(). A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the tensors the operation consumed.
	Inputs() []*tensor.RawTensor

	// Output returns the tensor the operation produced.
	Output() *tensor.RawTensor
}
