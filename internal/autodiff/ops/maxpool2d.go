package ops

import (
	"math"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// MaxPool2DOp records y = maxpool2d(x, kernelSize, stride, padding).
//
// The winner's flat input index per window is captured at record time;
// backward routes each output gradient to exactly that position.
type MaxPool2DOp struct {
	input, output *tensor.RawTensor
	maxIndices    []int
}

// NewMaxPool2DOp creates a new max pooling operation, scanning the input to
// record the argmax of every window.
func NewMaxPool2DOp(input, output *tensor.RawTensor, kernelSize, stride, padding int) *MaxPool2DOp {
	return &MaxPool2DOp{
		input:      input,
		output:     output,
		maxIndices: computeMaxIndices(input, output, kernelSize, stride, padding),
	}
}

func computeMaxIndices(input, output *tensor.RawTensor, kernelSize, stride, padding int) []int {
	inShape, outShape := input.Shape(), output.Shape()
	n, c, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	outH, outW := outShape[2], outShape[3]

	inData := input.AsFloat32()
	indices := make([]int, n*c*outH*outW)

	outIdx := 0
	for ni := 0; ni < n; ni++ {
		for ci := 0; ci < c; ci++ {
			base := (ni*c + ci) * h * w
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					maxVal := float32(math.Inf(-1))
					maxPos := -1
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
							idx := base + iy*w + ix
							if inData[idx] > maxVal {
								maxVal = inData[idx]
								maxPos = idx
							}
						}
					}
					indices[outIdx] = maxPos
					outIdx++
				}
			}
		}
	}
	return indices
}

// Inputs returns the input tensors.
func (op *MaxPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *MaxPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward delegates gradient routing to the backend.
func (op *MaxPool2DOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.MaxPool2DBackward(op.input, outputGrad, op.maxIndices)}
}
