// Copyright 2026 GrowNet ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the public API for the pure-Go CPU backend.
package cpu

import (
	"github.com/grownet-ml/grownet/internal/backend/cpu"
)

// Backend is the CPU compute backend.
type Backend = cpu.Backend

// New creates a CPU backend sized to the physical cores of the machine.
func New() *Backend {
	return cpu.New()
}

// NewSequential creates a single-threaded CPU backend, useful for
// deterministic debugging.
func NewSequential() *Backend {
	return cpu.NewSequential()
}
