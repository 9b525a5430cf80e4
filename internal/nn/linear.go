package nn

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Linear is a fully connected layer: output = input @ weight^T + bias.
//
// Weight shape is [outFeatures, inFeatures], so each output class owns one
// weight row. Weight alignment in the incremental trainer relies on this
// row-per-class layout.
type Linear[B tensor.Backend] struct {
	weight  *Parameter[B] // [outFeatures, inFeatures]
	bias    *Parameter[B] // [outFeatures], nil when disabled
	backend B
}

// NewLinear creates a fully connected layer.
// Panics on invalid dimensions.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, useBias bool, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("linear: invalid dimensions in=%d out=%d", inFeatures, outFeatures))
	}

	l := &Linear[B]{
		weight:  NewParameter("weight", UniformLinear(tensor.Shape{outFeatures, inFeatures}, inFeatures, backend)),
		backend: backend,
	}
	if useBias {
		l.bias = NewParameter("bias", UniformLinear(tensor.Shape{outFeatures}, inFeatures, backend))
	}
	return l
}

// Forward computes the affine projection.
// Input: [batch, inFeatures]. Output: [batch, outFeatures].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out := input.MatMul(l.weight.Tensor().T())
	if l.bias != nil {
		outF := l.bias.Tensor().Shape()[0]
		out = out.Add(l.bias.Tensor().Reshape(1, outF))
	}
	return out
}

// Parameters returns the layer parameters.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	if l.bias != nil {
		return []*Parameter[B]{l.weight, l.bias}
	}
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// OutFeatures returns the output dimensionality.
func (l *Linear[B]) OutFeatures() int {
	return l.weight.Tensor().Shape()[0]
}

// String describes the layer.
func (l *Linear[B]) String() string {
	w := l.weight.Tensor().Shape()
	return fmt.Sprintf("Linear(%d, %d, bias=%v)", w[1], w[0], l.bias != nil)
}
