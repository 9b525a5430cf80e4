package nn

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// GlobalAvgPool2D averages each channel over its spatial plane and
// flattens: [N, C, H, W] -> [N, C]. No learnable parameters.
type GlobalAvgPool2D[B tensor.Backend] struct {
	backend B
}

// NewGlobalAvgPool2D creates a global average pooling layer.
func NewGlobalAvgPool2D[B tensor.Backend](backend B) *GlobalAvgPool2D[B] {
	return &GlobalAvgPool2D[B]{backend: backend}
}

// Forward applies the pooling.
func (m *GlobalAvgPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("global avgpool: expected 4D input [N,C,H,W], got %v", input.Shape()))
	}
	return tensor.New[float32, B](m.backend.GlobalAvgPool2D(input.Raw()), m.backend)
}

// Parameters returns an empty slice.
func (m *GlobalAvgPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}
