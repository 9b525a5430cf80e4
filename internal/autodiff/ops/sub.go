package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// SubOp records c = a - b.
type SubOp struct {
	a, b, output *tensor.RawTensor
}

// NewSubOp creates a new subtraction operation.
func NewSubOp(a, b, output *tensor.RawTensor) *SubOp {
	return &SubOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *SubOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *SubOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes input gradients: grad for a, -grad for b.
func (op *SubOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	neg := zerosLike(outputGrad.Shape())
	negData := neg.AsFloat32()
	for i, v := range outputGrad.AsFloat32() {
		negData[i] = -v
	}
	return []*tensor.RawTensor{
		reduceBroadcast(outputGrad, op.a.Shape(), backend),
		reduceBroadcast(neg, op.b.Shape(), backend),
	}
}
