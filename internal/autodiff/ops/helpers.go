package ops

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// reduceBroadcast reduces a gradient to the target shape, undoing any
// broadcasting from the forward pass by summing over expanded dimensions.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		// Clone so shared gradients cannot be modified in place downstream.
		return grad.Clone()
	}

	// Broadcasting aligns from the right: sum away leading extra dims first.
	result := grad
	for len(result.Shape()) > len(targetShape) {
		result = sumAlongDim(result, 0)
		result = result.WithShape(result.Shape()[1:])
	}

	// Then sum dims where the target is 1.
	shape := result.Shape()
	for d := range targetShape {
		if targetShape[d] == 1 && shape[d] > 1 {
			result = sumAlongDim(result, d)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// sumAlongDim sums float32 data along one dimension, keeping it as size 1.
func sumAlongDim(t *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := t.Shape()
	outShape := shape.Clone()
	outShape[dim] = 1

	out := zerosLike(outShape)
	data := t.AsFloat32()
	outData := out.AsFloat32()
	strides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()

	for i, v := range data {
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
	return out
}

// zerosLike allocates a zero float32 tensor of the given shape on the CPU.
func zerosLike(shape tensor.Shape) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("ops: %v", err))
	}
	return out
}
