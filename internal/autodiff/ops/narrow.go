package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// NarrowOp records y = x[..., start:start+length, ...] along dim.
//
// Backward: the gradient is embedded into zeros of the input shape at the
// narrowed offset; positions outside the slice receive no gradient.
type NarrowOp struct {
	input, output *tensor.RawTensor
	dim, start    int
}

// NewNarrowOp creates a new narrow operation.
func NewNarrowOp(input, output *tensor.RawTensor, dim, start int) *NarrowOp {
	return &NarrowOp{input: input, output: output, dim: dim, start: start}
}

// Inputs returns the input tensors.
func (op *NarrowOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *NarrowOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward embeds the slice gradient into the full input shape.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	grad := zerosLike(inShape)

	length := outputGrad.Shape()[op.dim]
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
	dimSize := inShape[op.dim]
	for o := 0; o < outer; o++ {
		dst := gData[(o*dimSize+op.start)*inner : (o*dimSize+op.start+length)*inner]
		copy(dst, ogData[o*length*inner:(o+1)*length*inner])
	}
	return []*tensor.RawTensor{grad}
}
