package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// AddOp records c = a + b.
//
// Backward: both inputs receive the output gradient, reduced over any
// broadcast dimensions.
type AddOp struct {
	a, b, output *tensor.RawTensor
}

// NewAddOp creates a new addition operation.
func NewAddOp(a, b, output *tensor.RawTensor) *AddOp {
	return &AddOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *AddOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *AddOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes input gradients.
func (op *AddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(outputGrad, op.b.Shape(), backend),
	}
}
