// Package trainer implements the incremental training session: per-task
// growth, the task-partitioned loss, balanced fine-tuning and post-hoc
// weight alignment.
package trainer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config describes one incremental experiment.
type Config struct {
	// Dataset identifier, resolved to a class count by the model factory.
	Dataset string `yaml:"dataset"`

	BatchSize    int     `yaml:"batch_size"`
	Epochs       int     `yaml:"epochs"`
	LearningRate float32 `yaml:"learning_rate"`
	Momentum     float32 `yaml:"momentum"`
	WeightDecay  float32 `yaml:"weight_decay"`

	// SeparatedSoftmax enables the task-partitioned loss from the second
	// task on.
	SeparatedSoftmax bool `yaml:"separated_softmax"`

	// BalancedFineTune enables head-only fine-tuning on a class-balanced
	// subset after each task.
	BalancedFineTune bool `yaml:"balanced_finetune"`
	FineTuneEpochs   int  `yaml:"finetune_epochs"`
	// FineTunePerClass caps the balanced subset at this many samples per
	// class.
	FineTunePerClass int     `yaml:"finetune_per_class"`
	FineTuneLR       float32 `yaml:"finetune_lr"`

	// WeightAlign rescales the newest head's rows after each task.
	WeightAlign bool `yaml:"weight_align"`

	// CosineHead selects normalized classifier heads.
	CosineHead bool `yaml:"cosine_head"`
	// SuppressFinalActivation selects the pre-activation feature variant.
	SuppressFinalActivation bool `yaml:"suppress_final_activation"`

	// Seed drives loader shuffling and balanced subset selection.
	Seed int64 `yaml:"seed"`
}

// DefaultConfig returns the standard experiment settings.
func DefaultConfig() Config {
	return Config{
		Dataset:          "cifar100",
		BatchSize:        128,
		Epochs:           70,
		LearningRate:     0.1,
		Momentum:         0.9,
		WeightDecay:      5e-4,
		SeparatedSoftmax: true,
		BalancedFineTune: true,
		FineTuneEpochs:   15,
		FineTunePerClass: 20,
		FineTuneLR:       0.01,
		WeightAlign:      true,
		Seed:             1,
	}
}

// LoadConfig reads a YAML experiment file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("trainer: read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("trainer: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c Config) Validate() error {
	if c.Dataset == "" {
		return fmt.Errorf("trainer: config needs a dataset")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("trainer: batch size must be positive, got %d", c.BatchSize)
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("trainer: epochs must be positive, got %d", c.Epochs)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("trainer: learning rate must be positive, got %v", c.LearningRate)
	}
	if c.Momentum < 0 || c.Momentum >= 1 {
		return fmt.Errorf("trainer: momentum must be in [0, 1), got %v", c.Momentum)
	}
	if c.WeightDecay < 0 {
		return fmt.Errorf("trainer: weight decay must be non-negative, got %v", c.WeightDecay)
	}
	if c.BalancedFineTune {
		if c.FineTuneEpochs <= 0 {
			return fmt.Errorf("trainer: fine-tune epochs must be positive, got %d", c.FineTuneEpochs)
		}
		if c.FineTunePerClass <= 0 {
			return fmt.Errorf("trainer: fine-tune per-class count must be positive, got %d", c.FineTunePerClass)
		}
		if c.FineTuneLR <= 0 {
			return fmt.Errorf("trainer: fine-tune learning rate must be positive, got %v", c.FineTuneLR)
		}
	}
	return nil
}
