package tensor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grownet-ml/grownet/internal/backend/cpu"
	"github.com/grownet-ml/grownet/internal/tensor"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.NewSequential()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, x.Shape())
	assert.Equal(t, float32(6), x.At(1, 2))

	_, err = tensor.FromSlice([]float32{1, 2}, tensor.Shape{3}, backend)
	assert.Error(t, err)
}

func TestCreation(t *testing.T) {
	backend := cpu.NewSequential()

	zeros := tensor.Zeros[float32](tensor.Shape{2, 2}, backend)
	for _, v := range zeros.Data() {
		assert.Equal(t, float32(0), v)
	}

	full := tensor.Full[float32](tensor.Shape{3}, 2.5, backend)
	assert.Equal(t, []float32{2.5, 2.5, 2.5}, full.Data())
}

func TestAddBroadcast(t *testing.T) {
	backend := cpu.NewSequential()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	bias, err := tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	z := x.Add(bias)
	assert.Equal(t, tensor.Shape{2, 3}, z.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, z.Data())
}

func TestDeepCloneZeroAliasing(t *testing.T) {
	backend := cpu.NewSequential()

	x, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	clone := x.DeepClone()
	require.NotSame(t, x.Raw(), clone.Raw())

	x.Data()[0] = 99
	assert.Equal(t, []float32{1, 2, 3}, clone.Data())

	clone.Data()[1] = -1
	assert.Equal(t, float32(2), x.Data()[1])
}

func TestCat(t *testing.T) {
	backend := cpu.NewSequential()

	a, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	b, err := tensor.FromSlice([]float32{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	rows := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{a, b}, 0)
	assert.Equal(t, tensor.Shape{4, 2}, rows.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, rows.Data())

	cols := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{a, b}, 1)
	assert.Equal(t, tensor.Shape{2, 4}, cols.Shape())
	assert.Equal(t, []float32{1, 2, 5, 6, 3, 4, 7, 8}, cols.Data())
}

func TestNarrow(t *testing.T) {
	backend := cpu.NewSequential()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	mid := x.Narrow(1, 1, 2)
	assert.Equal(t, tensor.Shape{2, 2}, mid.Shape())
	assert.Equal(t, []float32{2, 3, 5, 6}, mid.Data())
}

func TestReshapeAndTranspose(t *testing.T) {
	backend := cpu.NewSequential()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	flat := x.Reshape(6)
	assert.Equal(t, tensor.Shape{6}, flat.Shape())

	xt := x.T()
	assert.Equal(t, tensor.Shape{3, 2}, xt.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, xt.Data())
}

func TestShapeHelpers(t *testing.T) {
	s := tensor.Shape{2, 3, 4}
	assert.Equal(t, 24, s.NumElements())
	assert.True(t, s.Equal(tensor.Shape{2, 3, 4}))
	assert.False(t, s.Equal(tensor.Shape{2, 3}))

	out, _, err := tensor.BroadcastShapes(tensor.Shape{2, 1, 4}, tensor.Shape{3, 1})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 4}, out)

	_, _, err = tensor.BroadcastShapes(tensor.Shape{2}, tensor.Shape{3})
	assert.Error(t, err)
}
