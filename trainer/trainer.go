// Copyright 2026 GrowNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trainer provides the public API for class-incremental training
// sessions.
package trainer

import (
	"github.com/grownet-ml/grownet/internal/network"
	"github.com/grownet-ml/grownet/internal/tensor"
	"github.com/grownet-ml/grownet/internal/trainer"
)

// Config describes one incremental experiment.
type Config = trainer.Config

// DefaultConfig returns the standard experiment settings.
func DefaultConfig() Config {
	return trainer.DefaultConfig()
}

// LoadConfig reads a YAML experiment file over the defaults.
func LoadConfig(path string) (Config, error) {
	return trainer.LoadConfig(path)
}

// Batch is one mini-batch of samples.
type Batch[B tensor.Backend] = trainer.Batch[B]

// Loader yields mini-batches for one pass over a dataset.
type Loader[B tensor.Backend] = trainer.Loader[B]

// SliceLoader is an in-memory Loader over flat sample storage.
type SliceLoader[B tensor.Backend] = trainer.SliceLoader[B]

// NewSliceLoader creates an in-memory loader.
func NewSliceLoader[B tensor.Backend](
	data []float32,
	sampleShape tensor.Shape,
	labels []int32,
	batchSize int,
	shuffleSeed int64,
	backend B,
) (*SliceLoader[B], error) {
	return trainer.NewSliceLoader(data, sampleShape, labels, batchSize, shuffleSeed, backend)
}

// Trainer drives one class-incremental session over a growing ensemble.
type Trainer[B tensor.Backend] = trainer.Trainer[B]

// New creates a session over a fresh model for cfg.Dataset.
func New[B tensor.Backend](cfg Config, backend B) (*Trainer[B], error) {
	return trainer.New(cfg, backend)
}

// SeparatedSoftmaxLoss partitions a batch by task membership and
// normalizes each side over its own label range.
func SeparatedSoftmaxLoss[B tensor.Backend](
	logits *tensor.Tensor[float32, B],
	labels *tensor.Tensor[int32, B],
	boundary, end int,
) *tensor.Tensor[float32, B] {
	return trainer.SeparatedSoftmaxLoss(logits, labels, boundary, end)
}

// AlignWeights rescales the newest head's weight rows to match the mean
// row norm of the prior heads.
func AlignWeights[B tensor.Backend](model *network.Ensemble[B]) error {
	return trainer.AlignWeights(model)
}
