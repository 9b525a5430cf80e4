package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// GlobalAvgPool2D averages each channel's spatial plane to a single value
// and flattens: [N, C, H, W] -> [N, C].
func (b *Backend) GlobalAvgPool2D(input *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32(input, "GlobalAvgPool2D")

	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("cpu GlobalAvgPool2D: expected 4D input, got %v", shape))
	}

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	plane := h * w
	out := newRaw(tensor.Shape{n, c}, tensor.Float32)
	inData := input.AsFloat32()
	outData := out.AsFloat32()

	inv := 1.0 / float32(plane)
	for i := 0; i < n*c; i++ {
		var sum float32
		for _, v := range inData[i*plane : (i+1)*plane] {
			sum += v
		}
		outData[i] = sum * inv
	}
	return out
}
