package trainer

import (
	"context"
	"fmt"
	"log"

	"github.com/grownet-ml/grownet/internal/autodiff"
	"github.com/grownet-ml/grownet/internal/network"
	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/optim"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Trainer drives one class-incremental session over a growing ensemble.
//
// Per task: BeginTask grows the model by one branch and one head and
// advances the label window, TrainTask runs the epoch loop, then
// FineTune and Align optionally rebalance the classifier.
type Trainer[B tensor.Backend] struct {
	cfg     Config
	backend *autodiff.AutodiffBackend[B]
	model   *network.Ensemble[*autodiff.AutodiffBackend[B]]
	opt     *optim.SGD[*autodiff.AutodiffBackend[B]]

	totalClasses int
	trainedTasks int

	// label window of the current task: previous classes are [0, boundary),
	// current classes are [boundary, end)
	boundary int
	end      int
}

// New creates a session over a fresh model for cfg.Dataset, wrapping the
// given compute backend with gradient tracking.
func New[B tensor.Backend](cfg Config, backend B) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ad := autodiff.New(backend)
	model, total, err := network.NewModel(cfg.Dataset, network.Mode{
		CosineHead:              cfg.CosineHead,
		SuppressFinalActivation: cfg.SuppressFinalActivation,
	}, ad)
	if err != nil {
		return nil, err
	}
	return &Trainer[B]{cfg: cfg, backend: ad, model: model, totalClasses: total}, nil
}

// Backend returns the gradient-tracking backend the session runs on.
// Loaders feeding this session must be built over it.
func (t *Trainer[B]) Backend() *autodiff.AutodiffBackend[B] {
	return t.backend
}

// Model returns the growing ensemble.
func (t *Trainer[B]) Model() *network.Ensemble[*autodiff.AutodiffBackend[B]] {
	return t.model
}

// Boundary returns the first label of the current task.
func (t *Trainer[B]) Boundary() int { return t.boundary }

// End returns one past the last label of the current task.
func (t *Trainer[B]) End() int { return t.end }

// TrainedTasks returns the number of completed TrainTask calls.
func (t *Trainer[B]) TrainedTasks() int { return t.trainedTasks }

// BeginTask grows the model by one branch and one head covering
// numClasses new labels, advances the label window, and rebuilds the
// optimizer over the parameters that remain trainable.
func (t *Trainer[B]) BeginTask(numClasses int) error {
	if numClasses <= 0 {
		return fmt.Errorf("trainer: task needs a positive class count, got %d", numClasses)
	}
	if t.end+numClasses > t.totalClasses {
		return fmt.Errorf("trainer: task would exceed %s's %d classes (%d trained + %d new)",
			t.cfg.Dataset, t.totalClasses, t.end, numClasses)
	}

	t.model.AddBranch()
	if _, err := t.model.AddHead(numClasses); err != nil {
		return err
	}
	t.boundary = t.end
	t.end += numClasses

	t.opt = optim.NewSGD(nn.TrainableParameters(t.model.Parameters()), optim.SGDConfig{
		LR:          t.cfg.LearningRate,
		Momentum:    t.cfg.Momentum,
		WeightDecay: t.cfg.WeightDecay,
	})
	log.Printf("task %d: classes [%d, %d), %d branches",
		t.model.NumBranches()-1, t.boundary, t.end, t.model.NumBranches())
	return nil
}

// TrainTask runs the epoch loop for the current task. Labels in the
// loader must lie in [0, End()). Cancelling the context stops between
// batches with no further updates.
func (t *Trainer[B]) TrainTask(ctx context.Context, loader Loader[*autodiff.AutodiffBackend[B]]) error {
	if t.opt == nil {
		return fmt.Errorf("trainer: BeginTask before TrainTask")
	}

	t.model.SetTraining(true)
	separated := t.cfg.SeparatedSoftmax && t.boundary > 0
	task := t.model.NumBranches() - 1

	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		loader.Reset()
		var epochLoss float64
		batches := 0
		for {
			batch, ok := loader.Next()
			if !ok {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			epochLoss += float64(t.trainStep(batch, t.opt, separated))
			batches++
		}
		if batches == 0 {
			return fmt.Errorf("trainer: loader produced no batches")
		}
		log.Printf("task %d epoch %d/%d loss %.4f", task, epoch+1, t.cfg.Epochs, epochLoss/float64(batches))
	}
	t.trainedTasks++
	return nil
}

// FineTune rebalances the classifier: every branch is frozen, every head
// made trainable, and the heads train alone on the (balanced) loader
// with plain cross-entropy.
func (t *Trainer[B]) FineTune(ctx context.Context, loader Loader[*autodiff.AutodiffBackend[B]]) error {
	if t.trainedTasks == 0 {
		return fmt.Errorf("trainer: FineTune before any trained task")
	}

	t.model.FreezeAllBranches()
	for _, p := range t.model.HeadParameters() {
		p.Unfreeze()
	}
	headOpt := optim.NewSGD(t.model.HeadParameters(), optim.SGDConfig{
		LR:       t.cfg.FineTuneLR,
		Momentum: t.cfg.Momentum,
	})

	task := t.model.NumBranches() - 1
	for epoch := 0; epoch < t.cfg.FineTuneEpochs; epoch++ {
		loader.Reset()
		var epochLoss float64
		batches := 0
		for {
			batch, ok := loader.Next()
			if !ok {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			epochLoss += float64(t.trainStep(batch, headOpt, false))
			batches++
		}
		if batches == 0 {
			return fmt.Errorf("trainer: fine-tune loader produced no batches")
		}
		log.Printf("task %d finetune epoch %d/%d loss %.4f", task, epoch+1, t.cfg.FineTuneEpochs, epochLoss/float64(batches))
	}
	return nil
}

// Align applies weight alignment to the newest head.
func (t *Trainer[B]) Align() error {
	if t.trainedTasks == 0 {
		return fmt.Errorf("trainer: Align before any trained task")
	}
	return AlignWeights(t.model)
}

// Evaluate returns argmax accuracy over the loader.
func (t *Trainer[B]) Evaluate(loader Loader[*autodiff.AutodiffBackend[B]]) (float32, error) {
	if t.model.NumHeads() == 0 {
		return 0, fmt.Errorf("trainer: Evaluate before any task")
	}

	t.model.SetTraining(false)
	loader.Reset()
	correct, total := 0, 0
	for {
		batch, ok := loader.Next()
		if !ok {
			break
		}
		logits := t.model.Forward(batch.Inputs)
		pred := t.backend.Argmax(logits.Raw(), 1).AsInt32()
		for i, y := range batch.Labels.Data() {
			if pred[i] == y {
				correct++
			}
		}
		total += batch.Labels.NumElements()
	}
	if total == 0 {
		return 0, fmt.Errorf("trainer: evaluation loader produced no samples")
	}
	return float32(correct) / float32(total), nil
}

// trainStep runs one recorded forward/backward/update cycle and returns
// the batch loss.
func (t *Trainer[B]) trainStep(
	batch Batch[*autodiff.AutodiffBackend[B]],
	opt *optim.SGD[*autodiff.AutodiffBackend[B]],
	separated bool,
) float32 {
	tape := t.backend.Tape()
	tape.StartRecording()
	opt.ZeroGrad()

	logits := t.model.Forward(batch.Inputs)
	var loss *tensor.Tensor[float32, *autodiff.AutodiffBackend[B]]
	if separated {
		loss = SeparatedSoftmaxLoss(logits, batch.Labels, t.boundary, t.end)
	} else {
		loss = crossEntropy(logits, batch.Labels)
	}

	outputGrad := tensor.Ones[float32](tensor.Shape{1}, t.backend)
	grads := tape.Backward(outputGrad.Raw(), t.backend)
	opt.Step(grads)

	tape.StopRecording()
	tape.Clear()
	return loss.Data()[0]
}
