package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Add performs element-wise addition with broadcasting.
func (b *Backend) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(a, c, "Add", func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(a, c, "Sub", func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(a, c, "Mul", func(x, y float32) float32 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (b *Backend) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp(a, c, "Div", func(x, y float32) float32 { return x / y })
}

// binaryOp applies fn element-wise. Matching shapes take the fast path,
// updating the left operand in place when its buffer is uniquely held.
// Aliased operands (x op x) must allocate: reusing the buffer would hand
// the caller back an input holding the results.
func (b *Backend) binaryOp(a, c *tensor.RawTensor, name string, fn func(x, y float32) float32) *tensor.RawTensor {
	requireFloat32(a, name)
	requireFloat32(c, name)

	aShape, cShape := a.Shape(), c.Shape()
	if aShape.Equal(cShape) {
		aData := a.AsFloat32()
		cData := c.AsFloat32()

		if a.IsUnique() && a != c {
			for i := range aData {
				aData[i] = fn(aData[i], cData[i])
			}
			return a
		}

		out := newRaw(aShape, tensor.Float32)
		outData := out.AsFloat32()
		for i := range outData {
			outData[i] = fn(aData[i], cData[i])
		}
		return out
	}

	outShape, _, err := tensor.BroadcastShapes(aShape, cShape)
	if err != nil {
		panic(fmt.Sprintf("cpu %s: %v", name, err))
	}

	out := newRaw(outShape, tensor.Float32)
	outData := out.AsFloat32()
	aData := a.AsFloat32()
	cData := c.AsFloat32()
	aIdx := broadcastStrides(aShape, outShape)
	cIdx := broadcastStrides(cShape, outShape)
	outStrides := outShape.ComputeStrides()

	for i := range outData {
		ai, ci := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			ai += coord * aIdx[d]
			ci += coord * cIdx[d]
		}
		outData[i] = fn(aData[ai], cData[ci])
	}
	return out
}

// broadcastStrides computes per-output-dimension strides into a tensor of
// the given shape, with zero stride on broadcast dimensions.
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := shape.ComputeStrides()
	result := make([]int, len(outShape))
	offset := len(outShape) - len(shape)
	for d := range outShape {
		s := d - offset
		if s < 0 || shape[s] == 1 && outShape[d] > 1 {
			result[d] = 0
		} else {
			result[d] = strides[s]
		}
	}
	return result
}

func requireFloat32(t *tensor.RawTensor, op string) {
	if t.DType() != tensor.Float32 {
		panic(fmt.Sprintf("cpu %s: only float32 supported, got %s", op, t.DType()))
	}
}
