package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// SumDimOp records y = sum(x, dim).
//
// Backward: the gradient is broadcast back along the reduced dimension.
type SumDimOp struct {
	input, output *tensor.RawTensor
	dim           int
}

// NewSumDimOp creates a new dimension-sum operation.
func NewSumDimOp(input, output *tensor.RawTensor, dim int) *SumDimOp {
	return &SumDimOp{input: input, output: output, dim: dim}
}

// Inputs returns the input tensors.
func (op *SumDimOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *SumDimOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward expands the gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	grad := zerosLike(inShape)

	dimSize := inShape[op.dim]
	outer := 1
	for d := 0; d < op.dim; d++ {
		outer *= inShape[d]
	}
	inner := 1
	for d := op.dim + 1; d < len(inShape); d++ {
		inner *= inShape[d]
	}

	gData := grad.AsFloat32()
	ogData := outputGrad.AsFloat32()
	for o := 0; o < outer; o++ {
		src := ogData[o*inner : (o+1)*inner]
		for k := 0; k < dimSize; k++ {
			copy(gData[(o*dimSize+k)*inner:(o*dimSize+k+1)*inner], src)
		}
	}
	return []*tensor.RawTensor{grad}
}
