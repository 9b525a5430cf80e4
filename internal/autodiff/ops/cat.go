package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// CatOp records y = cat(inputs, dim).
//
// Backward: the output gradient is split along dim at the input boundaries
// and each input receives its own slice.
type CatOp struct {
	inputs []*tensor.RawTensor
	dim    int
	sizes  []int // each input's extent along dim
	output *tensor.RawTensor
}

// NewCatOp creates a new concatenation operation.
func NewCatOp(inputs []*tensor.RawTensor, dim int, sizes []int, output *tensor.RawTensor) *CatOp {
	return &CatOp{inputs: inputs, dim: dim, sizes: sizes, output: output}
}

// Inputs returns the input tensors.
func (op *CatOp) Inputs() []*tensor.RawTensor {
	return op.inputs
}

// Output returns the output tensor.
func (op *CatOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward slices the output gradient back to each input.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, size := range op.sizes {
		grads[i] = backend.Narrow(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}
