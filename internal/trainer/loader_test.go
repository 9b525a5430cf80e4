package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/tensor"
)

func testSamples(n, sampleSize int) ([]float32, []int32) {
	data := make([]float32, n*sampleSize)
	labels := make([]int32, n)
	for i := 0; i < n; i++ {
		for j := 0; j < sampleSize; j++ {
			data[i*sampleSize+j] = float32(i)
		}
		labels[i] = int32(i % 3)
	}
	return data, labels
}

func TestSliceLoaderBatches(t *testing.T) {
	backend := cpu.NewSequential()
	data, labels := testSamples(7, 4)

	loader, err := NewSliceLoader(data, tensor.Shape{2, 2}, labels, 3, 0, backend)
	require.NoError(t, err)
	assert.Equal(t, 7, loader.NumSamples())

	sizes := []int{}
	for {
		batch, ok := loader.Next()
		if !ok {
			break
		}
		assert.Equal(t, tensor.Shape{batch.Labels.NumElements(), 2, 2}, batch.Inputs.Shape())
		sizes = append(sizes, batch.Labels.NumElements())
	}
	assert.Equal(t, []int{3, 3, 1}, sizes)

	// unshuffled loaders keep sample order
	loader.Reset()
	batch, ok := loader.Next()
	require.True(t, ok)
	assert.Equal(t, []int32{0, 1, 2}, batch.Labels.Data())
	assert.Equal(t, float32(0), batch.Inputs.Data()[0])
	assert.Equal(t, float32(2), batch.Inputs.Data()[8])
}

func TestSliceLoaderShuffleDeterminism(t *testing.T) {
	backend := cpu.NewSequential()
	data, labels := testSamples(12, 1)

	a, err := NewSliceLoader(data, tensor.Shape{1}, labels, 12, 7, backend)
	require.NoError(t, err)
	b, err := NewSliceLoader(data, tensor.Shape{1}, labels, 12, 7, backend)
	require.NoError(t, err)

	ba, _ := a.Next()
	bb, _ := b.Next()
	assert.Equal(t, ba.Inputs.Data(), bb.Inputs.Data())

	// a reshuffle changes the order
	a.Reset()
	ba2, _ := a.Next()
	assert.NotEqual(t, ba.Inputs.Data(), ba2.Inputs.Data())
}

func TestSliceLoaderValidation(t *testing.T) {
	backend := cpu.NewSequential()

	_, err := NewSliceLoader(nil, tensor.Shape{1}, nil, 2, 0, backend)
	assert.Error(t, err)

	_, err = NewSliceLoader([]float32{1, 2}, tensor.Shape{1}, []int32{0}, 2, 0, backend)
	assert.Error(t, err)

	_, err = NewSliceLoader([]float32{1}, tensor.Shape{1}, []int32{0}, 0, 0, backend)
	assert.Error(t, err)
}

func TestSliceLoaderBalanced(t *testing.T) {
	backend := cpu.NewSequential()
	data, labels := testSamples(12, 1) // labels 0,1,2 with four samples each

	loader, err := NewSliceLoader(data, tensor.Shape{1}, labels, 4, 0, backend)
	require.NoError(t, err)

	balanced, err := loader.Balanced(2, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, balanced.NumSamples())

	counts := map[int32]int{}
	for {
		batch, ok := balanced.Next()
		if !ok {
			break
		}
		for _, y := range batch.Labels.Data() {
			counts[y]++
		}
	}
	assert.Equal(t, map[int32]int{0: 2, 1: 2, 2: 2}, counts)
}
