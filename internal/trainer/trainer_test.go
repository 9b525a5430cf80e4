package trainer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/tensor"
)

var testSampleShape = tensor.Shape{3, 8, 8}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Dataset = "cifar10"
	cfg.BatchSize = 4
	cfg.Epochs = 1
	cfg.LearningRate = 0.01
	cfg.FineTuneEpochs = 1
	cfg.FineTunePerClass = 2
	return cfg
}

// taskData builds four samples per class for classes [lo, hi), each class
// a constant-valued image so tasks are separable.
func taskData(lo, hi int) ([]float32, []int32) {
	const perClass = 4
	sampleSize := testSampleShape.NumElements()
	n := (hi - lo) * perClass
	data := make([]float32, n*sampleSize)
	labels := make([]int32, n)
	i := 0
	for class := lo; class < hi; class++ {
		for s := 0; s < perClass; s++ {
			base := i * sampleSize
			for j := 0; j < sampleSize; j++ {
				data[base+j] = float32(class) * 0.5
			}
			labels[i] = int32(class)
			i++
		}
	}
	return data, labels
}

func sessionLoader(t *testing.T, session *Trainer[*cpu.Backend], lo, hi int) *SliceLoader[adBackend] {
	t.Helper()
	data, labels := taskData(lo, hi)
	loader, err := NewSliceLoader(data, testSampleShape, labels, 4, 1, session.Backend())
	require.NoError(t, err)
	return loader
}

func TestSessionLifecycle(t *testing.T) {
	session, err := New(testConfig(), cpu.NewSequential())
	require.NoError(t, err)
	ctx := context.Background()

	// task 0
	require.NoError(t, session.BeginTask(2))
	assert.Equal(t, 0, session.Boundary())
	assert.Equal(t, 2, session.End())
	require.NoError(t, session.TrainTask(ctx, sessionLoader(t, session, 0, 2)))
	assert.Equal(t, 1, session.TrainedTasks())

	// snapshot a first-branch weight before the second task trains
	frozen := session.Model().Branch(0).Parameters()[0].Tensor()
	snapshot := append([]float32(nil), frozen.Data()...)

	// task 1
	require.NoError(t, session.BeginTask(2))
	assert.Equal(t, 2, session.Boundary())
	assert.Equal(t, 4, session.End())
	assert.Equal(t, 2, session.Model().NumBranches())
	require.NoError(t, session.TrainTask(ctx, sessionLoader(t, session, 0, 4)))

	assert.Equal(t, snapshot, frozen.Data())

	require.NoError(t, session.FineTune(ctx, sessionLoader(t, session, 0, 4)))
	require.NoError(t, session.Align())

	acc, err := session.Evaluate(sessionLoader(t, session, 0, 4))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, float32(0))
	assert.LessOrEqual(t, acc, float32(1))
}

func TestTrainTaskRequiresBeginTask(t *testing.T) {
	session, err := New(testConfig(), cpu.NewSequential())
	require.NoError(t, err)

	data, labels := taskData(0, 2)
	loader, err := NewSliceLoader(data, testSampleShape, labels, 4, 0, session.Backend())
	require.NoError(t, err)

	assert.Error(t, session.TrainTask(context.Background(), loader))
}

func TestBeginTaskRejectsTooManyClasses(t *testing.T) {
	session, err := New(testConfig(), cpu.NewSequential())
	require.NoError(t, err)

	require.NoError(t, session.BeginTask(6))
	// cifar10 has 10 classes: 6 + 6 would overflow
	assert.Error(t, session.BeginTask(6))

	assert.Error(t, session.BeginTask(0))
}

func TestTrainTaskContextCancellation(t *testing.T) {
	session, err := New(testConfig(), cpu.NewSequential())
	require.NoError(t, err)
	require.NoError(t, session.BeginTask(2))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = session.TrainTask(ctx, sessionLoader(t, session, 0, 2))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, session.TrainedTasks())
}

func TestFineTuneAndAlignPreconditions(t *testing.T) {
	session, err := New(testConfig(), cpu.NewSequential())
	require.NoError(t, err)

	assert.Error(t, session.Align())

	data, labels := taskData(0, 2)
	loader, err := NewSliceLoader(data, testSampleShape, labels, 4, 0, session.Backend())
	require.NoError(t, err)
	assert.Error(t, session.FineTune(context.Background(), loader))
}

func TestFineTuneOnlyUpdatesHeads(t *testing.T) {
	session, err := New(testConfig(), cpu.NewSequential())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, session.BeginTask(2))
	require.NoError(t, session.TrainTask(ctx, sessionLoader(t, session, 0, 2)))

	branch := session.Model().Branch(0).Parameters()[0].Tensor()
	snapshot := append([]float32(nil), branch.Data()...)
	head := session.Model().Head(0).Weight().Tensor()
	headBefore := append([]float32(nil), head.Data()...)

	require.NoError(t, session.FineTune(ctx, sessionLoader(t, session, 0, 2)))

	assert.Equal(t, snapshot, branch.Data())
	assert.NotEqual(t, headBefore, head.Data())
}
