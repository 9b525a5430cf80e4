package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// IndexSelectOp records y = x[indices] (row selection along dim 0).
//
// Backward: each selected row's gradient is scatter-added back to its
// source row; duplicate indices accumulate.
type IndexSelectOp struct {
	input, output *tensor.RawTensor
	indices       []int32
}

// NewIndexSelectOp creates a new index-select operation.
func NewIndexSelectOp(input, output *tensor.RawTensor, indices []int32) *IndexSelectOp {
	// Copy the indices: the index tensor may be reused by the caller.
	saved := make([]int32, len(indices))
	copy(saved, indices)
	return &IndexSelectOp{input: input, output: output, indices: saved}
}

// Inputs returns the input tensors.
func (op *IndexSelectOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *IndexSelectOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward scatter-adds row gradients back to the input rows.
func (op *IndexSelectOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	grad := zerosLike(inShape)

	rowLen := 1
	for d := 1; d < len(inShape); d++ {
		rowLen *= inShape[d]
	}

	gData := grad.AsFloat32()
	ogData := outputGrad.AsFloat32()
	for k, idx := range op.indices {
		dst := gData[int(idx)*rowLen : (int(idx)+1)*rowLen]
		src := ogData[k*rowLen : (k+1)*rowLen]
		for j := range dst {
			dst[j] += src[j]
		}
	}
	return []*tensor.RawTensor{grad}
}
