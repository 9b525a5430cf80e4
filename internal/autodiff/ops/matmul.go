package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// MatMulOp records c = a @ b for 2D tensors.
//
// Backward:
//
//	grad_a = grad_c @ b^T
//	grad_b = a^T @ grad_c
type MatMulOp struct {
	a, b, output *tensor.RawTensor
}

// NewMatMulOp creates a new matrix multiplication operation.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{a: a, b: b, output: output}
}

// Inputs returns the input tensors.
func (op *MatMulOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.a, op.b}
}

// Output returns the output tensor.
func (op *MatMulOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes input gradients via transposed matmuls.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	gradA := backend.MatMul(outputGrad, backend.Transpose(op.b, 1, 0))
	gradB := backend.MatMul(backend.Transpose(op.a, 1, 0), outputGrad)
	return []*tensor.RawTensor{gradA, gradB}
}
