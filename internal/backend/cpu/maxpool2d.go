package cpu

import (
	"fmt"
	"math"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// MaxPool2D performs 2D max pooling. Padded positions never win the max:
// window positions are clipped to the valid input region, which matches
// -inf padding semantics.
//
// Input:  [N, C, H, W]
// Output: [N, C, outH, outW] with outH = (H + 2*padding - kernelSize)/stride + 1.
func (b *Backend) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	requireFloat32(input, "MaxPool2D")

	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("cpu MaxPool2D: expected 4D input, got %v", shape))
	}

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	outH := (h+2*padding-kernelSize)/stride + 1
	outW := (w+2*padding-kernelSize)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu MaxPool2D: non-positive output size for input %v kernel %d stride %d padding %d",
			shape, kernelSize, stride, padding))
	}

	out := newRaw(tensor.Shape{n, c, outH, outW}, tensor.Float32)
	inData := input.AsFloat32()
	outData := out.AsFloat32()

	outIdx := 0
	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			base := (ni*c + ci) * h * w
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					maxVal := float32(math.Inf(-1))
					for ky := 0; ky < kernelSize; ky++ {
						iy := oy*stride + ky - padding
						if iy < 0 || iy >= h {
							continue
						}
						for kx := 0; kx < kernelSize; kx++ {
							ix := ox*stride + kx - padding
							if ix < 0 || ix >= w {
								continue
							}
							if v := inData[base+iy*w+ix]; v > maxVal {
								maxVal = v
							}
						}
					}
					outData[outIdx] = maxVal
					outIdx++
				}
			}
		}
	}
	return out
}

// MaxPool2DBackward routes each output gradient to the input position that
// produced the max. All other window positions receive zero.
func (b *Backend) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	requireFloat32(outputGrad, "MaxPool2DBackward")

	grad := newRaw(input.Shape(), tensor.Float32)
	gData := grad.AsFloat32()
	ogData := outputGrad.AsFloat32()

	for i, pos := range maxIndices {
		if pos >= 0 {
			gData[pos] += ogData[i]
		}
	}
	return grad
}
