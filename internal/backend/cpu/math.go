package cpu

import (
	"fmt"
	"math"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Sqrt computes the element-wise square root.
func (b *Backend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32(x, "Sqrt")

	out := newRaw(x.Shape(), tensor.Float32)
	xData := x.AsFloat32()
	outData := out.AsFloat32()
	for i, v := range xData {
		outData[i] = float32(math.Sqrt(float64(v)))
	}
	return out
}

// ReLU computes max(0, x) element-wise.
func (b *Backend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	requireFloat32(x, "ReLU")

	out := newRaw(x.Shape(), tensor.Float32)
	xData := x.AsFloat32()
	outData := out.AsFloat32()
	for i, v := range xData {
		if v > 0 {
			outData[i] = v
		}
	}
	return out
}

// Softmax computes a numerically stable softmax along dim.
// Currently supports 2D tensors with dim=1.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	requireFloat32(x, "Softmax")

	shape := x.Shape()
	if len(shape) != 2 || dim != 1 {
		panic(fmt.Sprintf("cpu Softmax: only 2D tensors along dim 1 supported, got shape %v dim %d", shape, dim))
	}

	rows, cols := shape[0], shape[1]
	out := newRaw(shape, tensor.Float32)
	xData := x.AsFloat32()
	outData := out.AsFloat32()

	for r := 0; r < rows; r++ {
		row := xData[r*cols : (r+1)*cols]
		outRow := outData[r*cols : (r+1)*cols]

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}

		var sum float32
		for j, v := range row {
			e := float32(math.Exp(float64(v - maxVal)))
			outRow[j] = e
			sum += e
		}
		for j := range outRow {
			outRow[j] /= sum
		}
	}
	return out
}
