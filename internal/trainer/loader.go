package trainer

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/grownet-ml/grownet/internal/tensor"
)

// Batch is one mini-batch of samples.
type Batch[B tensor.Backend] struct {
	Inputs *tensor.Tensor[float32, B] // [n, C, H, W]
	Labels *tensor.Tensor[int32, B]   // [n]
}

// Loader yields mini-batches for one pass over a dataset.
type Loader[B tensor.Backend] interface {
	// Reset starts a new pass, reshuffling if the loader shuffles.
	Reset()

	// Next returns the next batch, or ok == false at end of pass.
	Next() (batch Batch[B], ok bool)

	// NumSamples returns the total sample count.
	NumSamples() int
}

// SliceLoader is an in-memory Loader over flat sample storage.
type SliceLoader[B tensor.Backend] struct {
	data        []float32
	sampleShape tensor.Shape // per sample, e.g. [3, 32, 32]
	sampleSize  int
	labels      []int32
	batchSize   int
	order       []int
	pos         int
	rng         *rand.Rand
	backend     B
}

// NewSliceLoader creates a loader over len(labels) samples stored
// contiguously in data. A non-zero shuffleSeed enables deterministic
// shuffling on every Reset.
func NewSliceLoader[B tensor.Backend](
	data []float32,
	sampleShape tensor.Shape,
	labels []int32,
	batchSize int,
	shuffleSeed int64,
	backend B,
) (*SliceLoader[B], error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("loader: no samples")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("loader: batch size must be positive, got %d", batchSize)
	}
	if err := sampleShape.Validate(); err != nil {
		return nil, fmt.Errorf("loader: bad sample shape: %w", err)
	}
	sampleSize := sampleShape.NumElements()
	if len(data) != len(labels)*sampleSize {
		return nil, fmt.Errorf("loader: %d values do not hold %d samples of %d elements",
			len(data), len(labels), sampleSize)
	}

	l := &SliceLoader[B]{
		data:        data,
		sampleShape: sampleShape.Clone(),
		sampleSize:  sampleSize,
		labels:      labels,
		batchSize:   batchSize,
		order:       make([]int, len(labels)),
		backend:     backend,
	}
	for i := range l.order {
		l.order[i] = i
	}
	if shuffleSeed != 0 {
		l.rng = rand.New(rand.NewSource(shuffleSeed))
	}
	l.Reset()
	return l, nil
}

// Reset starts a new pass over the samples.
func (l *SliceLoader[B]) Reset() {
	if l.rng != nil {
		l.rng.Shuffle(len(l.order), func(i, j int) {
			l.order[i], l.order[j] = l.order[j], l.order[i]
		})
	}
	l.pos = 0
}

// Next returns the next batch in the current pass.
func (l *SliceLoader[B]) Next() (Batch[B], bool) {
	if l.pos >= len(l.order) {
		return Batch[B]{}, false
	}
	n := min(l.batchSize, len(l.order)-l.pos)

	inputs := make([]float32, n*l.sampleSize)
	labels := make([]int32, n)
	for i := 0; i < n; i++ {
		idx := l.order[l.pos+i]
		copy(inputs[i*l.sampleSize:(i+1)*l.sampleSize], l.data[idx*l.sampleSize:(idx+1)*l.sampleSize])
		labels[i] = l.labels[idx]
	}
	l.pos += n

	batchShape := append(tensor.Shape{n}, l.sampleShape...)
	return Batch[B]{
		Inputs: mustFromSlice(inputs, batchShape, l.backend),
		Labels: mustFromSlice(labels, tensor.Shape{n}, l.backend),
	}, true
}

// NumSamples returns the total sample count.
func (l *SliceLoader[B]) NumSamples() int {
	return len(l.labels)
}

// Balanced returns a new loader over a class-balanced subset: up to
// perClass samples of each label, chosen deterministically from seed.
func (l *SliceLoader[B]) Balanced(perClass int, seed int64) (*SliceLoader[B], error) {
	if perClass <= 0 {
		return nil, fmt.Errorf("loader: per-class count must be positive, got %d", perClass)
	}

	byClass := make(map[int32][]int)
	for i, y := range l.labels {
		byClass[y] = append(byClass[y], i)
	}
	rng := rand.New(rand.NewSource(seed))

	var selected []int
	classes := make([]int32, 0, len(byClass))
	for y := range byClass {
		classes = append(classes, y)
	}
	// map iteration order is random; sort for determinism
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	for _, y := range classes {
		idxs := byClass[y]
		rng.Shuffle(len(idxs), func(i, j int) { idxs[i], idxs[j] = idxs[j], idxs[i] })
		take := min(perClass, len(idxs))
		selected = append(selected, idxs[:take]...)
	}

	data := make([]float32, len(selected)*l.sampleSize)
	labels := make([]int32, len(selected))
	for i, idx := range selected {
		copy(data[i*l.sampleSize:(i+1)*l.sampleSize], l.data[idx*l.sampleSize:(idx+1)*l.sampleSize])
		labels[i] = l.labels[idx]
	}
	return NewSliceLoader(data, l.sampleShape, labels, l.batchSize, seed, l.backend)
}
