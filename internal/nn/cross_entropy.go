package nn

import "github.com/grownet-ml/grownet/internal/tensor"

// CrossEntropyBackend is satisfied by backends providing a fused,
// gradient-aware cross-entropy (the autodiff decorator).
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor
}

// CrossEntropyLoss computes mean cross-entropy over a batch of logits.
//
// Expects raw logits [batch, classes] and int32 class indices [batch];
// uses the log-sum-exp decomposition for numerical stability.
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a cross-entropy loss.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{backend: backend}
}

// Forward computes the mean loss as a one-element tensor.
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	ceBackend, ok := any(c.backend).(CrossEntropyBackend)
	if !ok {
		panic("CrossEntropyLoss: backend must provide CrossEntropy (wrap with autodiff.New)")
	}
	return tensor.New[float32, B](ceBackend.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
}
