// Copyright 2026 GrowNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package network provides the public API for the growable multi-branch
// residual network.
package network

import (
	"github.com/grownet-ml/grownet/internal/network"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// FeatureDim is the dimensionality of the pooled branch features.
const FeatureDim = network.FeatureDim

// HeadKind selects the classifier head attached to each branch.
type HeadKind = network.HeadKind

// Head kind constants.
const (
	HeadLinear     HeadKind = network.HeadLinear
	HeadNormalized HeadKind = network.HeadNormalized
)

// Config describes one backbone/ensemble variant.
type Config = network.Config

// DefaultConfig returns the standard 18-layer variant.
func DefaultConfig() Config {
	return network.DefaultConfig()
}

// Mode selects the model variant for an experiment.
type Mode = network.Mode

// ConfigFor translates an experiment mode into an architecture config.
func ConfigFor(mode Mode) Config {
	return network.ConfigFor(mode)
}

// ResidualBlock is a basic two-convolution residual block.
type ResidualBlock[B tensor.Backend] = network.ResidualBlock[B]

// NewResidualBlock creates a basic residual block.
func NewResidualBlock[B tensor.Backend](
	inChannels, outChannels, stride, groups, baseWidth, dilation int,
	finalActivation bool,
	backend B,
) *ResidualBlock[B] {
	return network.NewResidualBlock(inChannels, outChannels, stride, groups, baseWidth, dilation, finalActivation, backend)
}

// Backbone is one feature-extraction branch.
type Backbone[B tensor.Backend] = network.Backbone[B]

// NewBackbone builds a branch from the given configuration.
func NewBackbone[B tensor.Backend](cfg Config, backend B) *Backbone[B] {
	return network.NewBackbone[B](cfg, backend)
}

// Head is the per-branch classifier interface.
type Head[B tensor.Backend] = network.Head[B]

// Ensemble is the growable model: one branch and one head per task.
type Ensemble[B tensor.Backend] = network.Ensemble[B]

// NewEnsemble creates an empty ensemble.
func NewEnsemble[B tensor.Backend](cfg Config, backend B) *Ensemble[B] {
	return network.NewEnsemble(cfg, backend)
}

// NumClasses returns the total class count for a dataset identifier.
func NumClasses(dataset string) (int, error) {
	return network.NumClasses(dataset)
}

// NewModel builds an empty ensemble configured for a dataset and mode.
func NewModel[B tensor.Backend](dataset string, mode Mode, backend B) (*Ensemble[B], int, error) {
	return network.NewModel(dataset, mode, backend)
}
