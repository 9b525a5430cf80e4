package ops

import (
	"fmt"
	"math"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// CrossEntropyForward computes mean cross-entropy loss over a batch using
// the log-sum-exp trick.
//
// logits:  [batch, classes] float32
// targets: [batch] int32 class indices
// Returns a one-element tensor holding the mean loss.
func CrossEntropyForward(logits, targets *tensor.RawTensor, device tensor.Device) *tensor.RawTensor {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("CrossEntropy: logits must be 2D [batch, classes], got %v", shape))
	}
	if targets.DType() != tensor.Int32 {
		panic("CrossEntropy: targets must be int32 class indices")
	}

	batch, classes := shape[0], shape[1]
	lData := logits.AsFloat32()
	tData := targets.AsInt32()
	if len(tData) != batch {
		panic(fmt.Sprintf("CrossEntropy: %d targets for batch of %d", len(tData), batch))
	}

	var total float64
	for i := 0; i < batch; i++ {
		row := lData[i*classes : (i+1)*classes]
		target := int(tData[i])
		if target < 0 || target >= classes {
			panic(fmt.Sprintf("CrossEntropy: target %d out of range [0, %d)", target, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logSumExp := float64(maxVal) + math.Log(sumExp)
		total += logSumExp - float64(row[target])
	}

	out, err := tensor.NewRaw(tensor.Shape{1}, tensor.Float32, device)
	if err != nil {
		panic(err)
	}
	out.AsFloat32()[0] = float32(total / float64(batch))
	return out
}

// CrossEntropyOp records loss = mean(-log_softmax(logits)[targets]).
//
// Backward: (softmax(logits) - onehot(targets)) * grad / batch.
type CrossEntropyOp struct {
	logits, targets, output *tensor.RawTensor
}

// NewCrossEntropyOp creates a new cross-entropy operation.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{logits: logits, targets: targets, output: output}
}

// Inputs returns the differentiable inputs (targets carry no gradient).
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{op.logits}
}

// Output returns the output tensor.
func (op *CrossEntropyOp) Output() *tensor.RawTensor {
	return op.output
}

// Backward computes the logits gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	shape := op.logits.Shape()
	batch, classes := shape[0], shape[1]

	softmax := backend.Softmax(op.logits, 1)
	grad := softmax.DeepClone()
	gData := grad.AsFloat32()
	tData := op.targets.AsInt32()

	scale := outputGrad.AsFloat32()[0] / float32(batch)
	for i := 0; i < batch; i++ {
		gData[i*classes+int(tData[i])] -= 1
		for j := i * classes; j < (i+1)*classes; j++ {
			gData[j] *= scale
		}
	}
	return []*tensor.RawTensor{grad}
}
