// Package autodiff implements reverse-mode automatic differentiation using
// the decorator pattern: AutodiffBackend wraps any Backend and records
// operations on a GradientTape during the forward pass.
package autodiff

import (
	"github.com/grownet-ml/grownet/internal/autodiff/ops"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// AutodiffBackend wraps a Backend and adds gradient tracking.
// It implements tensor.Backend itself, so tensors built over it record
// every differentiable operation transparently.
type AutodiffBackend[B tensor.Backend] struct {
	inner B
	tape  *GradientTape
}

// New creates an AutodiffBackend wrapping the given backend.
func New[B tensor.Backend](backend B) *AutodiffBackend[B] {
	return &AutodiffBackend[B]{inner: backend, tape: NewGradientTape()}
}

// Tape returns the gradient tape for recording control.
func (b *AutodiffBackend[B]) Tape() *GradientTape {
	return b.tape
}

// Inner returns the wrapped backend.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// IsRecording reports whether the tape is currently recording.
func (b *AutodiffBackend[B]) IsRecording() bool {
	return b.tape.IsRecording()
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Add performs element-wise addition and records the operation.
//
// ForceNonUnique keeps the inner backend from updating a recorded input in
// place, which would corrupt the computational graph.
func (b *AutodiffBackend[B]) Add(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Add(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewAddOp(a, c, result))
	}
	return result
}

// Sub performs element-wise subtraction and records the operation.
func (b *AutodiffBackend[B]) Sub(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Sub(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSubOp(a, c, result))
	}
	return result
}

// Mul performs element-wise multiplication and records the operation.
func (b *AutodiffBackend[B]) Mul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Mul(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMulOp(a, c, result))
	}
	return result
}

// Div performs element-wise division and records the operation.
func (b *AutodiffBackend[B]) Div(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.Div(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewDivOp(a, c, result))
	}
	return result
}

// MatMul performs matrix multiplication and records the operation.
func (b *AutodiffBackend[B]) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	defer a.ForceNonUnique()()
	defer c.ForceNonUnique()()

	result := b.inner.MatMul(a, c)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMatMulOp(a, c, result))
	}
	return result
}

// Conv2D performs convolution and records the operation.
func (b *AutodiffBackend[B]) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()
	defer kernel.ForceNonUnique()()

	result := b.inner.Conv2D(input, kernel, stride, padding)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewConv2DOp(input, kernel, result, stride, padding))
	}
	return result
}

// Conv2DInputBackward delegates to the wrapped backend (gradient kernels
// are not themselves differentiated).
func (b *AutodiffBackend[B]) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DInputBackward(input, kernel, outputGrad, stride, padding)
}

// Conv2DKernelBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	return b.inner.Conv2DKernelBackward(input, kernel, outputGrad, stride, padding)
}

// MaxPool2D performs max pooling and records the operation, capturing the
// winning index of every window for backward routing.
func (b *AutodiffBackend[B]) MaxPool2D(input *tensor.RawTensor, kernelSize, stride, padding int) *tensor.RawTensor {
	defer input.ForceNonUnique()()

	result := b.inner.MaxPool2D(input, kernelSize, stride, padding)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewMaxPool2DOp(input, result, kernelSize, stride, padding))
	}
	return result
}

// MaxPool2DBackward delegates to the wrapped backend.
func (b *AutodiffBackend[B]) MaxPool2DBackward(input, outputGrad *tensor.RawTensor, maxIndices []int) *tensor.RawTensor {
	return b.inner.MaxPool2DBackward(input, outputGrad, maxIndices)
}

// GlobalAvgPool2D performs global average pooling and records the operation.
func (b *AutodiffBackend[B]) GlobalAvgPool2D(input *tensor.RawTensor) *tensor.RawTensor {
	defer input.ForceNonUnique()()

	result := b.inner.GlobalAvgPool2D(input)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewGlobalAvgPool2DOp(input, result))
	}
	return result
}

// BatchNorm2D performs batch normalization and records the operation along
// with the statistics applied in the forward pass.
func (b *AutodiffBackend[B]) BatchNorm2D(input, gamma, beta, runningMean, runningVar *tensor.RawTensor,
	momentum, eps float32, training bool) (*tensor.RawTensor, *tensor.RawTensor, *tensor.RawTensor) {
	defer input.ForceNonUnique()()
	defer gamma.ForceNonUnique()()
	defer beta.ForceNonUnique()()

	out, savedMean, savedInvStd := b.inner.BatchNorm2D(input, gamma, beta, runningMean, runningVar, momentum, eps, training)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewBatchNorm2DOp(input, gamma, beta, out, savedMean, savedInvStd, training))
	}
	return out, savedMean, savedInvStd
}

// ReLU applies the rectifier and records the operation.
func (b *AutodiffBackend[B]) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.ReLU(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReLUOp(x, result))
	}
	return result
}

// Softmax delegates to the wrapped backend. It is used standalone for
// inference and inside cross-entropy backward; gradient flow goes through
// CrossEntropy instead.
func (b *AutodiffBackend[B]) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Softmax(x, dim)
}

// Sqrt computes the element-wise square root and records the operation.
func (b *AutodiffBackend[B]) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Sqrt(x)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSqrtOp(x, result))
	}
	return result
}

// Sum delegates to the wrapped backend (reduction used for metrics only).
func (b *AutodiffBackend[B]) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	return b.inner.Sum(x)
}

// SumDim sums along a dimension and records the operation.
func (b *AutodiffBackend[B]) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.SumDim(x, dim, keepDim)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewSumDimOp(x, result, dim))
	}
	return result
}

// Argmax delegates to the wrapped backend (not differentiable).
func (b *AutodiffBackend[B]) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.inner.Argmax(x, dim)
}

// Reshape reshapes a tensor and records the operation.
func (b *AutodiffBackend[B]) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	result := b.inner.Reshape(t, newShape)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewReshapeOp(t, result))
	}
	return result
}

// Transpose permutes dimensions and records the operation.
func (b *AutodiffBackend[B]) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	defer t.ForceNonUnique()()

	ndim := len(t.Shape())
	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	result := b.inner.Transpose(t, axes...)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewTransposeOp(t, result, axes))
	}
	return result
}

// Cat concatenates tensors and records the operation.
func (b *AutodiffBackend[B]) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	for _, t := range tensors {
		defer t.ForceNonUnique()()
	}

	result := b.inner.Cat(tensors, dim)
	if b.tape.IsRecording() {
		sizes := make([]int, len(tensors))
		for i, t := range tensors {
			sizes[i] = t.Shape()[dim]
		}
		b.tape.Record(ops.NewCatOp(tensors, dim, sizes, result))
	}
	return result
}

// Narrow slices along a dimension and records the operation.
func (b *AutodiffBackend[B]) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.Narrow(x, dim, start, length)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewNarrowOp(x, result, dim, start))
	}
	return result
}

// IndexSelect gathers rows and records the operation.
func (b *AutodiffBackend[B]) IndexSelect(x *tensor.RawTensor, dim int, indices *tensor.RawTensor) *tensor.RawTensor {
	defer x.ForceNonUnique()()

	result := b.inner.IndexSelect(x, dim, indices)
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewIndexSelectOp(x, result, indices.AsInt32()))
	}
	return result
}

// CrossEntropy computes mean cross-entropy loss and records the operation.
// Not part of tensor.Backend; looked up by capability where needed.
func (b *AutodiffBackend[B]) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	defer logits.ForceNonUnique()()
	// targets carry no gradient

	result := ops.CrossEntropyForward(logits, targets, b.Device())
	if b.tape.IsRecording() {
		b.tape.Record(ops.NewCrossEntropyOp(logits, targets, result))
	}
	return result
}
