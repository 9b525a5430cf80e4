package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// SqrtOp records y = sqrt(x).
//
// Backward: grad / (2 * sqrt(x)), computed from the stored output.
type SqrtOp struct {
	input, output *tensor.RawTensor
}

// NewSqrtOp creates a new square-root operation.
func NewSqrtOp(input, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *SqrtOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SqrtOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes grad / (2*y).
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	grad := zerosLike(op.input.Shape())
	gData := grad.AsFloat32()
	ogData := outputGrad.AsFloat32()
	outData := op.output.AsFloat32()
	for i := range gData {
		gData[i] = ogData[i] / (2 * outData[i])
	}
	return []*tensor.RawTensor{grad}
}
