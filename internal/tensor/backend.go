package tensor

// Backend defines the interface compute backends must implement.
//
// The CPU backend provides the reference implementation; the autodiff
// decorator wraps any Backend and records operations for backpropagation,
// which is why the interface also exposes the backward kernels the recorded
// operations delegate to.
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	// Implementations may reuse a uniquely held, non-aliased left operand
	// buffer for the result; callers that need an input preserved across
	// an operation must hold a reference (or ForceNonUnique it) first.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix multiplication for 2D tensors: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Convolution and pooling.
	Conv2D(input, kernel *RawTensor, stride, padding int) *RawTensor
	Conv2DInputBackward(input, kernel, outputGrad *RawTensor, stride, padding int) *RawTensor
	Conv2DKernelBackward(input, kernel, outputGrad *RawTensor, stride, padding int) *RawTensor
	MaxPool2D(input *RawTensor, kernelSize, stride, padding int) *RawTensor
	MaxPool2DBackward(input, outputGrad *RawTensor, maxIndices []int) *RawTensor
	GlobalAvgPool2D(input *RawTensor) *RawTensor

	// Batch normalization over [N, C, H, W] with per-channel statistics.
	// In training mode batch statistics are used and running statistics are
	// updated in place; in eval mode running statistics are used. Returns
	// the output plus the per-channel mean and inverse standard deviation
	// actually applied (needed by the backward pass).
	BatchNorm2D(input, gamma, beta, runningMean, runningVar *RawTensor,
		momentum, eps float32, training bool) (out, savedMean, savedInvStd *RawTensor)

	// Activations.
	ReLU(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Element-wise math.
	Sqrt(x *RawTensor) *RawTensor

	// Reductions.
	Sum(x *RawTensor) *RawTensor
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	Argmax(x *RawTensor, dim int) *RawTensor

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Manipulation and indexing.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Narrow(x *RawTensor, dim, start, length int) *RawTensor
	IndexSelect(x *RawTensor, dim int, indices *RawTensor) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
