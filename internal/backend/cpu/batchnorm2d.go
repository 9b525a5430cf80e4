package cpu

import (
	"fmt"
	"math"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// BatchNorm2D normalizes [N, C, H, W] input per channel.
//
// Training mode normalizes with batch statistics and updates the running
// statistics in place (biased variance for normalization, unbiased for the
// running estimate). Eval mode normalizes with the running statistics.
// Returns the output plus the applied per-channel mean and inverse standard
// deviation for the backward pass.
func (b *Backend) BatchNorm2D(input, gamma, beta, runningMean, runningVar *tensor.RawTensor,
	momentum, eps float32, training bool) (*tensor.RawTensor, *tensor.RawTensor, *tensor.RawTensor) {
	requireFloat32(input, "BatchNorm2D")

	shape := input.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("cpu BatchNorm2D: expected 4D input, got %v", shape))
	}

	n, c, h, w := shape[0], shape[1], shape[2], shape[3]
	if gamma.NumElements() != c || beta.NumElements() != c ||
		runningMean.NumElements() != c || runningVar.NumElements() != c {
		panic(fmt.Sprintf("cpu BatchNorm2D: parameter size mismatch for %d channels", c))
	}

	plane := h * w
	m := n * plane

	out := newRaw(shape, tensor.Float32)
	savedMean := newRaw(tensor.Shape{c}, tensor.Float32)
	savedInvStd := newRaw(tensor.Shape{c}, tensor.Float32)

	inData := input.AsFloat32()
	gData := gamma.AsFloat32()
	bData := beta.AsFloat32()
	rMean := runningMean.AsFloat32()
	rVar := runningVar.AsFloat32()
	outData := out.AsFloat32()
	meanData := savedMean.AsFloat32()
	invStdData := savedInvStd.AsFloat32()

	for ci := 0; ci < c; ci++ {
		var mean, variance float32
		if training {
			var sum float32
			for ni := 0; ni < n; ni++ {
				base := (ni*c + ci) * plane
				for _, v := range inData[base : base+plane] {
					sum += v
				}
			}
			mean = sum / float32(m)

			var sqSum float32
			for ni := 0; ni < n; ni++ {
				base := (ni*c + ci) * plane
				for _, v := range inData[base : base+plane] {
					d := v - mean
					sqSum += d * d
				}
			}
			variance = sqSum / float32(m)

			rMean[ci] = (1-momentum)*rMean[ci] + momentum*mean
			unbiased := variance
			if m > 1 {
				unbiased = sqSum / float32(m-1)
			}
			rVar[ci] = (1-momentum)*rVar[ci] + momentum*unbiased
		} else {
			mean = rMean[ci]
			variance = rVar[ci]
		}

		invStd := float32(1.0 / math.Sqrt(float64(variance)+float64(eps)))
		meanData[ci] = mean
		invStdData[ci] = invStd

		scale := gData[ci] * invStd
		shift := bData[ci] - mean*scale
		for ni := 0; ni < n; ni++ {
			base := (ni*c + ci) * plane
			for j := base; j < base+plane; j++ {
				outData[j] = inData[j]*scale + shift
			}
		}
	}

	return out, savedMean, savedInvStd
}
