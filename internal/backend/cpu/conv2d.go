package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/parallel"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Conv2D performs 2D convolution via im2col + matrix multiplication.
//
// Input:  [N, Cin, H, W]
// Kernel: [Cout, Cin, kH, kW]
// Output: [N, Cout, outH, outW] with outH = (H + 2*padding - kH)/stride + 1.
func (b *Backend) Conv2D(input, kernel *tensor.RawTensor, stride, padding int) *tensor.RawTensor {
	requireFloat32(input, "Conv2D")
	requireFloat32(kernel, "Conv2D")

	inShape, kShape := input.Shape(), kernel.Shape()
	if len(inShape) != 4 || len(kShape) != 4 {
		panic(fmt.Sprintf("cpu Conv2D: expected 4D input and kernel, got %v and %v", inShape, kShape))
	}
	if inShape[1] != kShape[1] {
		panic(fmt.Sprintf("cpu Conv2D: channel mismatch: input %v kernel %v", inShape, kShape))
	}

	n, cin, h, w := inShape[0], inShape[1], inShape[2], inShape[3]
	cout, kh, kw := kShape[0], kShape[2], kShape[3]
	outH := (h+2*padding-kh)/stride + 1
	outW := (w+2*padding-kw)/stride + 1
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("cpu Conv2D: non-positive output size for input %v kernel %v stride %d padding %d",
			inShape, kShape, stride, padding))
	}

	out := newRaw(tensor.Shape{n, cout, outH, outW}, tensor.Float32)
	inData := input.AsFloat32()
	kData := kernel.AsFloat32()
	outData := out.AsFloat32()

	colRows := cin * kh * kw
	colCols := outH * outW

	cfg := b.par
	cfg.MinChunkSize = 1
	parallel.For(n, func(ni int) {
		col := make([]float32, colRows*colCols)
		im2col(inData[ni*cin*h*w:(ni+1)*cin*h*w], col, cin, h, w, kh, kw, outH, outW, stride, padding)

		// out[ni] = kernelMat [cout, colRows] @ col [colRows, colCols]
		outBatch := outData[ni*cout*colCols : (ni+1)*cout*colCols]
		for oc := 0; oc < cout; oc++ {
			kRow := kData[oc*colRows : (oc+1)*colRows]
			outRow := outBatch[oc*colCols : (oc+1)*colCols]
			for r := 0; r < colRows; r++ {
				kv := kRow[r]
				if kv == 0 {
					continue
				}
				colRow := col[r*colCols : (r+1)*colCols]
				for j := 0; j < colCols; j++ {
					outRow[j] += kv * colRow[j]
				}
			}
		}
	}, cfg)

	return out
}

// im2col unfolds one image [cin, h, w] into a [cin*kh*kw, outH*outW] matrix.
// Out-of-bounds positions (padding) contribute zeros.
func im2col(img, col []float32, cin, h, w, kh, kw, outH, outW, stride, padding int) {
	colCols := outH * outW
	for c := 0; c < cin; c++ {
		for ky := 0; ky < kh; ky++ {
			for kx := 0; kx < kw; kx++ {
				row := ((c*kh+ky)*kw + kx) * colCols
				for oy := 0; oy < outH; oy++ {
					iy := oy*stride + ky - padding
					if iy < 0 || iy >= h {
						continue // col is zero-initialized
					}
					for ox := 0; ox < outW; ox++ {
						ix := ox*stride + kx - padding
						if ix < 0 || ix >= w {
							continue
						}
						col[row+oy*outW+ox] = img[(c*h+iy)*w+ix]
					}
				}
			}
		}
	}
}
