package trainer

import (
	"fmt"

	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// crossEntropy computes mean cross-entropy through the backend's fused,
// gradient-aware kernel.
func crossEntropy[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	labels *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	backend := logits.Backend()
	ce, ok := any(backend).(nn.CrossEntropyBackend)
	if !ok {
		panic("trainer: backend must provide CrossEntropy (wrap with autodiff.New)")
	}
	return tensor.New[float32, B](ce.CrossEntropy(logits.Raw(), labels.Raw()), backend)
}

// SeparatedSoftmaxLoss partitions a batch by task membership and
// normalizes each side over its own label range.
//
// Rows with label >= boundary belong to the current task and are scored
// on columns [boundary, end) with shifted labels; rows with label <
// boundary are scored on columns [0, boundary). The two mean losses are
// weighted by their row counts and divided by the full batch size, so an
// empty side contributes exactly zero. With boundary == 0 (first task, or
// the mode disabled) this reduces to plain cross-entropy over [0, end).
func SeparatedSoftmaxLoss[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	labels *tensor.Tensor[int32, B],
	boundary, end int,
) *tensor.Tensor[float32, B] {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("separated softmax: expected 2D logits, got %v", shape))
	}
	batch := shape[0]
	if batch == 0 {
		panic("separated softmax: empty batch")
	}
	if boundary < 0 || end > shape[1] || boundary >= end {
		panic(fmt.Sprintf("separated softmax: invalid range [%d, %d) over %d classes", boundary, end, shape[1]))
	}

	if boundary == 0 {
		if end == shape[1] {
			return crossEntropy(logits, labels)
		}
		return crossEntropy(logits.Narrow(1, 0, end), labels)
	}

	backend := logits.Backend()
	var prevIdx, prevLab, currIdx, currLab []int32
	for i, y := range labels.Data() {
		if int(y) >= boundary {
			currIdx = append(currIdx, int32(i))
			currLab = append(currLab, y-int32(boundary))
		} else {
			prevIdx = append(prevIdx, int32(i))
			prevLab = append(prevLab, y)
		}
	}

	var total *tensor.Tensor[float32, B]
	addSide := func(idx, lab []int32, start, length int) {
		if len(idx) == 0 {
			return
		}
		idxT := mustFromSlice(idx, tensor.Shape{len(idx)}, backend)
		labT := mustFromSlice(lab, tensor.Shape{len(lab)}, backend)
		rows := tensor.New[float32, B](backend.IndexSelect(logits.Raw(), 0, idxT.Raw()), backend)
		side := crossEntropy(rows.Narrow(1, start, length), labT)
		weighted := side.Mul(tensor.Full[float32](tensor.Shape{1}, float32(len(idx)), backend))
		if total == nil {
			total = weighted
		} else {
			total = total.Add(weighted)
		}
	}
	addSide(currIdx, currLab, boundary, end-boundary)
	addSide(prevIdx, prevLab, 0, boundary)

	return total.Div(tensor.Full[float32](tensor.Shape{1}, float32(batch), backend))
}

func mustFromSlice[T tensor.DType, B tensor.Backend](data []T, shape tensor.Shape, backend B) *tensor.Tensor[T, B] {
	t, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		panic(err)
	}
	return t
}
