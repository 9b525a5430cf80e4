package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// MulOp records c = a * b (element-wise).
type MulOp struct {
	a, b, output *tensor.RawTensor
}

// NewMulOp creates a new multiplication operation.
func NewMulOp(a, b, output *tensor.RawTensor) *MulOp {
	return &MulOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *MulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *MulOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes input gradients: grad*b for a, grad*a for b.
func (op *MulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.Mul(outputGrad, op.b)
	gradB := backend.Mul(outputGrad, op.a)
	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}
