package cpu

import (
	"github.com/grownet-ml/grownet/internal/parallel"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Conv2DInputBackward computes the gradient of a convolution with respect
// to its input by scattering each output gradient back through the kernel.
func (b *Backend) Conv2DInputBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32(kernel, "Conv2DInputBackward")
	requireFloat32(outputGrad, "Conv2DInputBackward")

	inShape, kShape, ogShape := input.Shape(), kernel.Shape(), outputGrad.Shape()
	n, cin, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cout, kh, kw := kShape[0], kShape[2], kShape[3]
	outH, outW := ogShape[2], ogShape[3]

	grad := newRaw(inShape, tensor.Float32)
	kData := kernel.AsFloat32()
	ogData := outputGrad.AsFloat32()
	gData := grad.AsFloat32()

	cfg := b.par
	cfg.MinChunkSize = 1
	parallel.For(n, func(ni int) {
		gBatch := gData[ni*cin*h*w : (ni+1)*cin*h*w]
		ogBatch := ogData[ni*cout*outH*outW : (ni+1)*cout*outH*outW]
		for oc := 0; oc < cout; oc++ {
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					og := ogBatch[(oc*outH+oy)*outW+ox]
					if og == 0 {
						continue
					}
					for c := 0; c < cin; c++ {
						kBase := ((oc*cin + c) * kh) * kw
						for ky := 0; ky < kh; ky++ {
							iy := oy*stride + ky - padding
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								ix := ox*stride + kx - padding
								if ix < 0 || ix >= w {
									continue
								}
								gBatch[(c*h+iy)*w+ix] += og * kData[kBase+ky*kw+kx]
							}
						}
					}
				}
			}
		}
	}, cfg)

	return grad
}

// Conv2DKernelBackward computes the gradient of a convolution with respect
// to its kernel, accumulating over the batch.
func (b *Backend) Conv2DKernelBackward(input, kernel, outputGrad *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32(input, "Conv2DKernelBackward")
	requireFloat32(outputGrad, "Conv2DKernelBackward")

	inShape, kShape, ogShape := input.Shape(), kernel.Shape(), outputGrad.Shape()
	n, cin, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cout, kh, kw := kShape[0], kShape[2], kShape[3]
	outH, outW := ogShape[2], ogShape[3]

	grad := newRaw(kShape, tensor.Float32)
	inData := input.AsFloat32()
	ogData := outputGrad.AsFloat32()
	gData := grad.AsFloat32()

	// Parallel over output channels: each owns a disjoint slice of the
	// kernel gradient, so no accumulation races.
	cfg := b.par
	cfg.MinChunkSize = 1
	parallel.For(cout, func(oc int) {
		for ni := 0; ni < n; ni++ {
			inBatch := inData[ni*cin*h*w : (ni+1)*cin*h*w]
			ogBatch := ogData[ni*cout*outH*outW : (ni+1)*cout*outH*outW]
			for oy := 0; oy < outH; oy++ {
				for ox := 0; ox < outW; ox++ {
					og := ogBatch[(oc*outH+oy)*outW+ox]
					if og == 0 {
						continue
					}
					for c := 0; c < cin; c++ {
						gBase := ((oc*cin + c) * kh) * kw
						for ky := 0; ky < kh; ky++ {
							iy := oy*stride + ky - padding
							if iy < 0 || iy >= h {
								continue
							}
							for kx := 0; kx < kw; kx++ {
								ix := ox*stride + kx - padding
								if ix < 0 || ix >= w {
									continue
								}
								gData[gBase+ky*kw+kx] += og * inBatch[(c*h+iy)*w+ix]
							}
						}
					}
				}
			}
		}
	}, cfg)

	return grad
}
