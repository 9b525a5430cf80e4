package nn

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// MaxPool2D is a 2D max pooling layer. No learnable parameters.
type MaxPool2D[B tensor.Backend] struct {
	kernelSize int
	stride     int
	padding    int
	backend    B
}

// NewMaxPool2D creates a max pooling layer.
func NewMaxPool2D[B tensor.Backend](kernelSize, stride, padding int, backend B) *MaxPool2D[B] {
	if kernelSize <= 0 || stride <= 0 || padding < 0 {
		panic(fmt.Sprintf("maxpool2d: invalid kernel=%d stride=%d padding=%d", kernelSize, stride, padding))
	}
	return &MaxPool2D[B]{kernelSize: kernelSize, stride: stride, padding: padding, backend: backend}
}

// Forward applies max pooling.
func (m *MaxPool2D[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(input.Shape()) != 4 {
		panic(fmt.Sprintf("maxpool2d: expected 4D input [N,C,H,W], got %v", input.Shape()))
	}
	out := m.backend.MaxPool2D(input.Raw(), m.kernelSize, m.stride, m.padding)
	return tensor.New[float32, B](out, m.backend)
}

// Parameters returns an empty slice.
func (m *MaxPool2D[B]) Parameters() []*Parameter[B] {
	return nil
}
