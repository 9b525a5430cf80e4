package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// ReLUOp records y = max(0, x).
//
// Backward: the gradient passes only where the input was positive.
type ReLUOp struct {
	input, output *tensor.RawTensor
}

// NewReLUOp creates a new ReLU operation.
func NewReLUOp(input, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *ReLUOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *ReLUOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward masks the output gradient by the input sign.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := zerosLike(op.input.Shape())
	gData := grad.AsFloat32()
	inData := op.input.AsFloat32()
	ogData := outputGrad.AsFloat32()
	for i, v := range inData {
		if v > 0 {
			gData[i] = ogData[i]
		}
	}
	return []*tensor.RawTensor{grad}
}
