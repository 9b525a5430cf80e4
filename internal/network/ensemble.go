package network

import (
	"fmt"
	"sync"

	"github.com/grownet-ml/grownet/internal/nn"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Head is the per-branch classifier interface, satisfied by nn.Linear
// and nn.NormedLinear.
type Head[B tensor.Backend] interface {
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
	Parameters() []*nn.Parameter[B]
	Weight() *nn.Parameter[B]
	OutFeatures() int
}

// recordingBackend is satisfied by tape-decorated backends. Branch
// fan-out must stay sequential while a tape is recording, because the
// tape is not safe for concurrent appends.
type recordingBackend interface {
	IsRecording() bool
}

// Ensemble is the growable model: one backbone branch and one classifier
// head per task, in creation order. Older branches and heads are frozen;
// only the newest pair trains.
type Ensemble[B tensor.Backend] struct {
	cfg      Config
	branches []*Backbone[B]
	heads    []Head[B]
	backend  B
}

// NewEnsemble creates an empty ensemble. Call AddBranch and AddHead to
// grow it before the first forward pass.
func NewEnsemble[B tensor.Backend](cfg Config, backend B) *Ensemble[B] {
	return &Ensemble[B]{cfg: cfg, backend: backend}
}

// AddBranch grows the ensemble by one backbone branch and returns it.
//
// The first call creates a fresh backbone. Every later call warm-starts
// the new branch as a deep copy of the newest one and freezes the
// original, so exactly one branch is ever trainable.
func (e *Ensemble[B]) AddBranch() *Backbone[B] {
	var branch *Backbone[B]
	if len(e.branches) == 0 {
		branch = NewBackbone[B](e.cfg, e.backend)
	} else {
		branch = e.branches[len(e.branches)-1].CloneAndFreeze()
	}
	e.branches = append(e.branches, branch)
	return branch
}

// AddHead appends a classifier head for numClasses new classes and
// returns it. All previously added heads are frozen first.
//
// Each head pairs with one branch; calling AddHead without a preceding
// AddBranch is an error.
func (e *Ensemble[B]) AddHead(numClasses int) (Head[B], error) {
	if numClasses <= 0 {
		return nil, fmt.Errorf("ensemble: head needs a positive class count, got %d", numClasses)
	}
	if len(e.heads) >= len(e.branches) {
		return nil, fmt.Errorf("ensemble: %d heads already cover %d branches, call AddBranch first",
			len(e.heads), len(e.branches))
	}

	for _, h := range e.heads {
		for _, p := range h.Parameters() {
			p.Freeze()
		}
	}

	var head Head[B]
	switch e.cfg.Head {
	case HeadNormalized:
		head = nn.NewNormedLinear(FeatureDim, numClasses, e.backend)
	default:
		head = nn.NewLinear(FeatureDim, numClasses, true, e.backend)
	}
	e.heads = append(e.heads, head)
	return head, nil
}

// Forward runs every branch on the same input and concatenates the
// per-branch head logits along the class dimension, in creation order.
// Output: [batch, totalClasses].
func (e *Ensemble[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	logits, _ := e.forward(input, false)
	return logits
}

// ForwardWithFeatures additionally concatenates the per-branch features
// along the feature dimension: [batch, numBranches*FeatureDim].
func (e *Ensemble[B]) ForwardWithFeatures(input *tensor.Tensor[float32, B]) (logits, features *tensor.Tensor[float32, B]) {
	return e.forward(input, true)
}

func (e *Ensemble[B]) forward(input *tensor.Tensor[float32, B], withFeatures bool) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	if len(e.branches) == 0 {
		panic("ensemble: forward before any AddBranch")
	}
	if len(e.heads) != len(e.branches) {
		panic(fmt.Sprintf("ensemble: %d branches but %d heads", len(e.branches), len(e.heads)))
	}

	branchFeatures := make([]*tensor.Tensor[float32, B], len(e.branches))
	branchLogits := make([]*tensor.Tensor[float32, B], len(e.branches))

	if e.canFanOut() && len(e.branches) > 1 {
		var wg sync.WaitGroup
		for i := range e.branches {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				branchFeatures[i] = e.branches[i].Features(input)
				branchLogits[i] = e.heads[i].Forward(branchFeatures[i])
			}(i)
		}
		wg.Wait()
	} else {
		for i := range e.branches {
			branchFeatures[i] = e.branches[i].Features(input)
			branchLogits[i] = e.heads[i].Forward(branchFeatures[i])
		}
	}

	logits := tensor.Cat(branchLogits, 1)
	var features *tensor.Tensor[float32, B]
	if withFeatures {
		features = tensor.Cat(branchFeatures, 1)
	}
	return logits, features
}

// canFanOut reports whether branches may run concurrently. Tape-recording
// backends must run sequentially to keep the recorded order deterministic.
func (e *Ensemble[B]) canFanOut() bool {
	if rb, ok := any(e.backend).(recordingBackend); ok {
		return !rb.IsRecording()
	}
	return true
}

// NumBranches returns the branch count.
func (e *Ensemble[B]) NumBranches() int {
	return len(e.branches)
}

// NumHeads returns the head count.
func (e *Ensemble[B]) NumHeads() int {
	return len(e.heads)
}

// Branch returns the i-th branch in creation order.
func (e *Ensemble[B]) Branch(i int) *Backbone[B] {
	return e.branches[i]
}

// Head returns the i-th head in creation order.
func (e *Ensemble[B]) Head(i int) Head[B] {
	return e.heads[i]
}

// NumClasses returns the total class count across all heads.
func (e *Ensemble[B]) NumClasses() int {
	total := 0
	for _, h := range e.heads {
		total += h.OutFeatures()
	}
	return total
}

// Parameters returns every parameter of every branch and head.
func (e *Ensemble[B]) Parameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, b := range e.branches {
		params = append(params, b.Parameters()...)
	}
	for _, h := range e.heads {
		params = append(params, h.Parameters()...)
	}
	return params
}

// HeadParameters returns the parameters of every head only.
func (e *Ensemble[B]) HeadParameters() []*nn.Parameter[B] {
	var params []*nn.Parameter[B]
	for _, h := range e.heads {
		params = append(params, h.Parameters()...)
	}
	return params
}

// SetTraining propagates the mode to every branch. Frozen branches stay
// in evaluation mode.
func (e *Ensemble[B]) SetTraining(training bool) {
	for _, b := range e.branches {
		b.SetTraining(training)
	}
}

// FreezeAllBranches freezes every branch, including the newest one.
// Used before balanced fine-tuning, which trains heads only.
func (e *Ensemble[B]) FreezeAllBranches() {
	for _, b := range e.branches {
		b.Freeze()
	}
}
