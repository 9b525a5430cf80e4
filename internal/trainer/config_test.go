package trainer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15, cfg.FineTuneEpochs)
	assert.True(t, cfg.SeparatedSoftmax)
	assert.True(t, cfg.WeightAlign)
}

func TestLoadConfigOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataset: cifar10\nepochs: 3\nbatch_size: 16\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "cifar10", cfg.Dataset)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 16, cfg.BatchSize)

	// untouched keys keep their defaults
	assert.Equal(t, float32(0.1), cfg.LearningRate)
	assert.Equal(t, 15, cfg.FineTuneEpochs)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("batch_size: -4\n"), 0o644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := DefaultConfig()

	cfg := base
	cfg.Dataset = ""
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Epochs = 0
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Momentum = 1
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.FineTuneLR = -0.1
	assert.Error(t, cfg.Validate())
}
