package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Reshape returns a view of the same data under a new shape.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(newShape)
}

// Transpose permutes dimensions, copying into a contiguous result.
// With no axes, all dimensions are reversed.
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	requireFloat32(t, "Transpose")

	shape := t.Shape()
	ndim := len(shape)
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("cpu Transpose: expected %d axes, got %d", ndim, len(axes)))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("cpu Transpose: axis %d out of range for %dD tensor", ax, ndim))
		}
		outShape[i] = shape[ax]
	}

	out := newRaw(outShape, tensor.Float32)
	inData := t.AsFloat32()
	outData := out.AsFloat32()
	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i := range outData {
		rem := i
		srcIdx := 0
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * inStrides[axes[d]]
		}
		outData[i] = inData[srcIdx]
	}
	return out
}
