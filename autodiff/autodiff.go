// Copyright 2026 GrowNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides the public API for reverse-mode automatic
// differentiation. Wrap any backend with New and tensors built over the
// wrapper record their operations on a gradient tape.
package autodiff

import (
	"github.com/grownet-ml/grownet/internal/autodiff"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Backend wraps a compute backend and adds gradient tracking.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// GradientTape records operations for the backward pass.
type GradientTape = autodiff.GradientTape

// New creates a gradient-tracking wrapper around the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}
