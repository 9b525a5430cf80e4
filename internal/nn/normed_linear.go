package nn

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// NormedLinear is a cosine classifier: both the input vectors and the
// weight rows are L2-normalized before the projection, so logits are
// cosine similarities. No bias term.
type NormedLinear[B tensor.Backend] struct {
	weight  *Parameter[B] // [outFeatures, inFeatures]
	backend B
}

// NewNormedLinear creates a cosine classifier head.
func NewNormedLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *NormedLinear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		panic(fmt.Sprintf("normed linear: invalid dimensions in=%d out=%d", inFeatures, outFeatures))
	}
	return &NormedLinear[B]{
		weight:  NewParameter("weight", UniformLinear(tensor.Shape{outFeatures, inFeatures}, inFeatures, backend)),
		backend: backend,
	}
}

// Forward computes cosine logits.
// Input: [batch, inFeatures]. Output: [batch, outFeatures].
func (l *NormedLinear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return L2Normalize(input).MatMul(L2Normalize(l.weight.Tensor()).T())
}

// Parameters returns the layer parameters.
func (l *NormedLinear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight}
}

// Weight returns the weight parameter.
func (l *NormedLinear[B]) Weight() *Parameter[B] {
	return l.weight
}

// OutFeatures returns the output dimensionality.
func (l *NormedLinear[B]) OutFeatures() int {
	return l.weight.Tensor().Shape()[0]
}

// L2Normalize scales each row of a 2D tensor to unit L2 norm.
// Built from recorded tensor operations, so gradients flow through it.
func L2Normalize[B tensor.Backend](t *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if len(t.Shape()) != 2 {
		panic(fmt.Sprintf("L2Normalize: expected 2D tensor, got %v", t.Shape()))
	}
	// t feeds both the norm and the final division; keep every
	// intermediate off its buffer
	defer t.Raw().ForceNonUnique()()

	eps := tensor.Full[float32](tensor.Shape{1}, 1e-12, t.Backend())
	norm := t.Mul(t).SumDim(1, true).Add(eps).Sqrt() // [rows, 1]
	return t.Div(norm)
}
