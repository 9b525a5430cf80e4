package nn

import (
	"math"
	"math/rand"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// KaimingNormalConv initializes a [out, in, kH, kW] convolution kernel with
// fan-out Kaiming normal values, the standard for ReLU residual networks.
func KaimingNormalConv[B tensor.Backend](shape tensor.Shape, b B) *tensor.Tensor[float32, B] {
	fanOut := shape[0] * shape[2] * shape[3]
	std := float32(math.Sqrt(2.0 / float64(fanOut)))

	t := tensor.Randn[float32](shape, b)
	data := t.Data()
	for i := range data {
		data[i] *= std
	}
	return t
}

// UniformLinear initializes a [out, in] weight (or [out] bias) uniformly in
// [-1/sqrt(fanIn), 1/sqrt(fanIn)].
func UniformLinear[B tensor.Backend](shape tensor.Shape, fanIn int, b B) *tensor.Tensor[float32, B] {
	bound := float32(1.0 / math.Sqrt(float64(fanIn)))

	t := tensor.Zeros[float32](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * bound //nolint:gosec
	}
	return t
}
