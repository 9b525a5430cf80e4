package nn

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Conv2D is a 2D convolution layer.
//
// Input shape:  [batch, inChannels, height, width]
// Output shape: [batch, outChannels, outH, outW]
// with outH = (height + 2*padding - kernelSize)/stride + 1.
type Conv2D[B tensor.Backend] struct {
	weight  *Parameter[B] // [outChannels, inChannels, kernelSize, kernelSize]
	bias    *Parameter[B] // [outChannels], nil when disabled
	stride  int
	padding int
	backend B
}

// NewConv2D creates a square-kernel convolution layer.
// Panics on invalid hyperparameters.
func NewConv2D[B tensor.Backend](inChannels, outChannels, kernelSize, stride, padding int, useBias bool, backend B) *Conv2D[B] {
	if inChannels <= 0 || outChannels <= 0 {
		panic(fmt.Sprintf("conv2d: invalid channels in=%d out=%d", inChannels, outChannels))
	}
	if kernelSize <= 0 || stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("conv2d: invalid kernel=%d stride=%d padding=%d", kernelSize, stride, padding))
	}

	weightShape := tensor.Shape{outChannels, inChannels, kernelSize, kernelSize}
	c := &Conv2D[B]{
		weight:  NewParameter("weight", KaimingNormalConv(weightShape, backend)),
		stride:  stride,
		padding: padding,
		backend: backend,
	}
	if useBias {
		c.bias = NewParameter("bias", tensor.Zeros[float32](tensor.Shape{outChannels}, backend))
	}
	return c
}

// Forward applies the convolution.
func (c *Conv2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("conv2d: expected 4D input [N,C,H,W], got %v", input.Shape()))
	}

	outRaw := c.backend.Conv2D(input.Raw(), c.weight.Tensor().Raw(), c.stride, c.padding)
	out := tensor.New[float32, B](outRaw, c.backend)

	if c.bias != nil {
		outC := c.bias.Tensor().Shape()[0]
		out = out.Add(c.bias.Tensor().Reshape(1, outC, 1, 1))
	}
	return out
}

// Parameters returns the layer parameters.
func (c *Conv2D[B]) Parameters() []*Parameter[B] {
	if c.bias != nil {
		return []*Parameter[B]{c.weight, c.bias}
	}
	return []*Parameter[B]{c.weight}
}

// Weight returns the kernel parameter.
func (c *Conv2D[B]) Weight() *Parameter[B] {
	return c.weight
}

// String describes the layer.
func (c *Conv2D[B]) String() string {
	w := c.weight.Tensor().Shape()
	return fmt.Sprintf("Conv2D(%d, %d, kernel_size=%d, stride=%d, padding=%d, bias=%v)",
		w[1], w[0], w[2], c.stride, c.padding, c.bias != nil)
}
