package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// GlobalAvgPool2DOp records y[n,c] = mean over (h,w) of x[n,c,h,w].
//
// Backward: each spatial position receives grad[n,c] / (H*W).
type GlobalAvgPool2DOp struct {
	input, output *tensor.RawTensor
}

// NewGlobalAvgPool2DOp creates a new global average pooling operation.
func NewGlobalAvgPool2DOp(input, output *tensor.RawTensor) *GlobalAvgPool2DOp {
	return &GlobalAvgPool2DOp{input: input, output: output}
}

// Inputs returns the input tensors.
func (op *GlobalAvgPool2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input}
}

// Output returns the output tensor.
func (op *GlobalAvgPool2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward spreads each channel gradient evenly over the spatial plane.
func (op *GlobalAvgPool2DOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	inShape := op.input.Shape()
	plane := inShape[2] * inShape[3]
	inv := 1.0 / float32(plane)

	grad := zerosLike(inShape)
	gData := grad.AsFloat32()
	ogData := outputGrad.AsFloat32()
	for i, v := range ogData {
		g := v * inv
		for j := i * plane; j < (i+1)*plane; j++ {
			gData[j] = g
		}
	}
	return []*tensor.RawTensor{grad}
}
