package nn

import "github.com/grownet-ml/grownet/internal/tensor"

// Parameter is a named, optionally trainable tensor.
//
// Freezing a parameter keeps it in the module (its values still shape the
// forward pass) but removes it from optimization: optimizers built over
// trainable parameters simply never see it.
type Parameter[B tensor.Backend] struct {
	name      string
	tensor    *tensor.Tensor[float32, B]
	grad      *tensor.Tensor[float32, B]
	trainable bool
}

// NewParameter creates a trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t, trainable: true}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Grad returns the stored gradient, or nil before any backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad stores a gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the stored gradient.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// Trainable reports whether the parameter receives gradient updates.
func (p *Parameter[B]) Trainable() bool {
	return p.trainable
}

// Freeze marks the parameter as non-trainable.
func (p *Parameter[B]) Freeze() {
	p.trainable = false
}

// Unfreeze marks the parameter as trainable again.
func (p *Parameter[B]) Unfreeze() {
	p.trainable = true
}

// DeepClone returns an independent, trainable copy of the parameter.
// The clone shares no storage with the original.
func (p *Parameter[B]) DeepClone() *Parameter[B] {
	return &Parameter[B]{name: p.name, tensor: p.tensor.DeepClone(), trainable: true}
}
