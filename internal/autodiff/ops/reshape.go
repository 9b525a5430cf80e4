package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// ReshapeOp records y = reshape(x).
//
// Recording matters even for a pure view: without it, gradients computed
// for the reshaped tensor would never reach the original parameter.
type ReshapeOp struct {
	input, output *tensor.RawTensor
}

// NewReshapeOp creates a new reshape operation.
func NewReshapeOp(input, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ReshapeOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReshapeOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.input.Shape())}
}
