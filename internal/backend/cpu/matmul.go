package cpu

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/parallel"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// Rows are computed in parallel for large matrices.
func (b *Backend) MatMul(a, c *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32(a, "MatMul")
	requireFloat32(c, "MatMul")

	aShape, cShape := a.Shape(), c.Shape()
	if len(aShape) != 2 || len(cShape) != 2 {
		panic(fmt.Sprintf("cpu MatMul: expected 2D tensors, got %v @ %v", aShape, cShape))
	}
	if aShape[1] != cShape[0] {
		panic(fmt.Sprintf("cpu MatMul: inner dimensions mismatch: %v @ %v", aShape, cShape))
	}

	m, k, n := aShape[0], aShape[1], cShape[1]
	out := newRaw(tensor.Shape{m, n}, tensor.Float32)
	aData := a.AsFloat32()
	cData := c.AsFloat32()
	outData := out.AsFloat32()

	cfg := b.par
	cfg.MinChunkSize = 1
	parallel.For(m, func(i int) {
		rowA := aData[i*k : (i+1)*k]
		rowOut := outData[i*n : (i+1)*n]
		for kk := 0; kk < k; kk++ {
			av := rowA[kk]
			if av == 0 {
				continue
			}
			rowC := cData[kk*n : (kk+1)*n]
			for j := 0; j < n; j++ {
				rowOut[j] += av * rowC[j]
			}
		}
	}, cfg)

	return out
}
