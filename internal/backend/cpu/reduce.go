package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Sum reduces all elements to a one-element tensor.
func (b *Backend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32(x, "Sum")

	out := newRaw(tensor.Shape{1}, tensor.Float32)
	var sum float32
	for _, v := range x.AsFloat32() {
		sum += v
	}
	out.AsFloat32()[0] = sum
	return out
}

// SumDim sums along a dimension. With keepDim the reduced dimension stays
// as size 1, otherwise it is removed (scalars become shape {1}).
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	requireFloat32(x, "SumDim")

	shape := x.Shape()
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("cpu SumDim: dim %d out of range for shape %v", dim, shape))
	}

	keptShape := shape.Clone()
	keptShape[dim] = 1
	out := newRaw(keptShape, tensor.Float32)
	xData := x.AsFloat32()
	outData := out.AsFloat32()

	strides := shape.ComputeStrides()
	outStrides := keptShape.ComputeStrides()
	for i, v := range xData {
		rem := i
		outIdx := 0
		for d := 0; d < len(shape); d++ {
			coord := rem / strides[d]
			rem %= strides[d]
			if d != dim {
				outIdx += coord * outStrides[d]
			}
		}
		outData[outIdx] += v
	}

	if keepDim {
		return out
	}
	squeezed := make(tensor.Shape, 0, len(shape)-1)
	for d, s := range keptShape {
		if d != dim {
			squeezed = append(squeezed, s)
		}
	}
	if len(squeezed) == 0 {
		squeezed = tensor.Shape{1}
	}
	return out.WithShape(squeezed)
}

// Argmax returns the index of the maximum along dim as an int32 tensor.
// Currently supports 2D tensors with dim=1.
func (b *Backend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat32(x, "Argmax")

	shape := x.Shape()
	if len(shape) != 2 || dim != 1 {
		panic(fmt.Sprintf("cpu Argmax: only 2D tensors along dim 1 supported, got shape %v dim %d", shape, dim))
	}

	rows, cols := shape[0], shape[1]
	out := newRaw(tensor.Shape{rows}, tensor.Int32)
	xData := x.AsFloat32()
	outData := out.AsInt32()

	for r := 0; r < rows; r++ {
		row := xData[r*cols : (r+1)*cols]
		best := 0
		for j := 1; j < cols; j++ {
			if row[j] > row[best] {
				best = j
			}
		}
		outData[r] = int32(best)
	}
	return out
}
