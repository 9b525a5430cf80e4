package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// DivOp records c = a / b (element-wise).
type DivOp struct {
	a, b, output *tensor.RawTensor
}

// NewDivOp creates a new division operation.
func NewDivOp(a, b, output *tensor.RawTensor) *DivOp {
	return &DivOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *DivOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *DivOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes input gradients: grad/b for a, -grad*a/b^2 for b.
func (op *DivOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.Div(outputGrad, op.b)

	bSquared := backend.Mul(op.b, op.b)
	gradB := backend.Div(backend.Mul(outputGrad, op.a), bSquared)
	gradBData := gradB.AsFloat32()
	for i := range gradBData {
		gradBData[i] = -gradBData[i]
	}

	return []*tensor.RawTensor{
		reduceBroadcast(gradA, op.a.Shape(), backend),
		reduceBroadcast(gradB, op.b.Shape(), backend),
	}
}
