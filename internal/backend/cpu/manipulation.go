package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Cat concatenates tensors along dim, in the given order.
// All inputs must share dtype and all dimensions except dim.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cpu Cat: empty tensor list")
	}

	first := tensors[0].Shape()
	if dim < 0 || dim >= len(first) {
		panic(fmt.Sprintf("cpu Cat: dim %d out of range for shape %v", dim, first))
	}

	total := 0
	for _, t := range tensors {
		shape := t.Shape()
		if len(shape) != len(first) {
			panic(fmt.Sprintf("cpu Cat: rank mismatch: %v vs %v", first, shape))
		}
		for d := range shape {
			if d != dim && shape[d] != first[d] {
				panic(fmt.Sprintf("cpu Cat: shape mismatch on dim %d: %v vs %v", d, first, shape))
			}
		}
		if t.DType() != tensors[0].DType() {
			panic("cpu Cat: dtype mismatch")
		}
		total += shape[dim]
	}

	outShape := first.Clone()
	outShape[dim] = total
	out := newRaw(outShape, tensors[0].DType())

	// Contiguous row-major layout: concatenation is block copies per outer
	// index, where inner covers everything after dim.
	elemSize := tensors[0].DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= first[d]
	}
	innerB := elemSize
	for d := dim + 1; d < len(first); d++ {
		innerB *= first[d]
	}

	outData := out.Data()
	offset := 0
	for _, t := range tensors {
		size := t.Shape()[dim]
		srcData := t.Data()
		blockB := size * innerB
		for o := 0; o < outer; o++ {
			dst := outData[(o*total+offset)*innerB : (o*total+offset)*innerB+blockB]
			copy(dst, srcData[o*blockB:(o+1)*blockB])
		}
		offset += size
	}
	return out
}

// Narrow copies the slice [start, start+length) along dim.
func (b *Backend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu Narrow: dim %d out of range for shape %v", dim, shape))
	}
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("cpu Narrow: range [%d, %d) out of bounds for dim size %d", start, start+length, shape[dim]))
	}

	outShape := shape.Clone()
	outShape[dim] = length
	out := newRaw(outShape, x.DType())

	elemSize := x.DType().Size()
	outer := 1
	for d := 0; d < dim; d++ {
		outer *= shape[d]
	}
	innerB := elemSize
	for d := dim + 1; d < len(shape); d++ {
		innerB *= shape[d]
	}

	srcData := x.Data()
	outData := out.Data()
	dimSize := shape[dim]
	for o := 0; o < outer; o++ {
		src := srcData[(o*dimSize+start)*innerB : (o*dimSize+start+length)*innerB]
		copy(outData[o*length*innerB:(o+1)*length*innerB], src)
	}
	return out
}

// IndexSelect gathers slices along dim using an int32 index tensor.
// Currently supports dim=0 (row selection).
func (b *Backend) IndexSelect(x *tensor.RawTensor, dim int, indices *tensor.RawTensor) *tensor.RawTensor {
	if dim != 0 {
		panic(fmt.Sprintf("cpu IndexSelect: only dim 0 supported, got %d", dim))
	}
	if indices.DType() != tensor.Int32 || len(indices.Shape()) != 1 {
		panic("cpu IndexSelect: indices must be a 1D int32 tensor")
	}

	shape := x.Shape()
	idx := indices.AsInt32()
	outShape := shape.Clone()
	outShape[0] = len(idx)
	out := newRaw(outShape, x.DType())

	rowB := x.DType().Size()
	for d := 1; d < len(shape); d++ {
		rowB *= shape[d]
	}

	srcData := x.Data()
	outData := out.Data()
	for k, i := range idx {
		if i < 0 || int(i) >= shape[0] {
			panic(fmt.Sprintf("cpu IndexSelect: index %d out of range for dim size %d", i, shape[0]))
		}
		copy(outData[k*rowB:(k+1)*rowB], srcData[int(i)*rowB:(int(i)+1)*rowB])
	}
	return out
}
