package ops

import "github.com/grownet-ml/grownet/internal/tensor"

// BatchNorm2DOp records y = batchnorm(x, gamma, beta).
//
// The per-channel mean and inverse standard deviation actually applied in
// the forward pass are captured for the backward formulas. In training mode
// the full batch-statistics gradient is used; in eval mode the statistics
// are constants and the input gradient is simply grad * gamma * invStd.
type BatchNorm2DOp struct {
	input, gamma, beta   *tensor.RawTensor
	output               *tensor.RawTensor
	savedMean, savedStd  *tensor.RawTensor // savedStd holds the inverse std
	training             bool
}

// NewBatchNorm2DOp creates a new batch normalization operation.
func NewBatchNorm2DOp(input, gamma, beta, output, savedMean, savedInvStd *tensor.RawTensor, training bool) *BatchNorm2DOp {
	return &BatchNorm2DOp{
		input:     input,
		gamma:     gamma,
		beta:      beta,
		output:    output,
		savedMean: savedMean,
		savedStd:  savedInvStd,
		training:  training,
	}
}

// Inputs returns the input tensors.
func (op *BatchNorm2DOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.input, op.gamma, op.beta}
}

// Output returns the output tensor.
func (op *BatchNorm2DOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes gradients for input, gamma and beta.
//
// With xhat = (x - mean) * invStd and m = N*H*W per channel:
//
//	dbeta  = Σ grad
//	dgamma = Σ grad * xhat
//	dx     = gamma * invStd / m * (m*grad - dbeta - xhat*dgamma)   (training)
//	dx     = grad * gamma * invStd                                  (eval)
func (op *BatchNorm2DOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	shape := op.input.Shape()
	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	plane := h * w
	m := float32(n * plane)

	inData := op.input.AsFloat32()
	gammaData := op.gamma.AsFloat32()
	meanData := op.savedMean.AsFloat32()
	invStdData := op.savedStd.AsFloat32()
	ogData := outputGrad.AsFloat32()

	inputGrad := zerosLike(shape)
	gammaGrad := zerosLike(tensor.Shape{c})
	betaGrad := zerosLike(tensor.Shape{c})
	igData := inputGrad.AsFloat32()
	ggData := gammaGrad.AsFloat32()
	bgData := betaGrad.AsFloat32()

	for ci := 0; ci < c; ci++ {
		mean := meanData[ci]
		invStd := invStdData[ci]

		var sumGrad, sumGradXhat float32
		for ni := 0; ni < n; ni++ {
			base := (ni*c + ci) * plane
			for j := base; j < base+plane; j++ {
				g := ogData[j]
				sumGrad += g
				sumGradXhat += g * (inData[j] - mean) * invStd
			}
		}
		ggData[ci] = sumGradXhat
		bgData[ci] = sumGrad

		if op.training {
			scale := gammaData[ci] * invStd / m
			for ni := 0; ni < n; ni++ {
				base := (ni*c + ci) * plane
				for j := base; j < base+plane; j++ {
					xhat := (inData[j] - mean) * invStd
					igData[j] = scale * (m*ogData[j] - sumGrad - xhat*sumGradXhat)
				}
			}
		} else {
			scale := gammaData[ci] * invStd
			for ni := 0; ni < n; ni++ {
				base := (ni*c + ci) * plane
				for j := base; j < base+plane; j++ {
					igData[j] = ogData[j] * scale
				}
			}
		}
	}

	return []*tensor.RawTensor{inputGrad, gammaGrad, betaGrad}
}
