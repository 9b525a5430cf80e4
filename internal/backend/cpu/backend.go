// Package cpu implements the pure-Go CPU compute backend.
package cpu

import (
	"fmt"

	"github.com/klauspost/cpuid/v2"

	"github.com/grownet-ml/grownet/internal/parallel"
	"github.com/grownet-ml/grownet/internal/tensor"
)

// Backend is the CPU compute backend.
//
// All operations allocate a new result tensor unless the input buffer is
// uniquely referenced, in which case element-wise ops may update in place.
// The autodiff decorator defeats the inplace path with ForceNonUnique when
// recorded inputs must stay intact.
type Backend struct {
	par parallel.Config
}

// New creates a CPU backend sized from the detected processor topology.
func New() *Backend {
	cfg := parallel.DefaultConfig()
	if cores := cpuid.CPU.PhysicalCores; cores > 0 {
		cfg.NumWorkers = cores
		cfg.Enabled = cores > 1
	}
	return &Backend{par: cfg}
}

// NewSequential creates a CPU backend with parallelism disabled.
// Useful for deterministic debugging and small unit tests.
func NewSequential() *Backend {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &Backend{par: cfg}
}

// Name returns the backend name, including the detected CPU brand.
func (b *Backend) Name() string {
	if brand := cpuid.CPU.BrandName; brand != "" {
		return fmt.Sprintf("CPU(%s)", brand)
	}
	return "CPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.CPU
}

// newRaw allocates a result tensor, panicking on invalid shapes.
// Backend-internal shape errors are programming errors, not user input.
func newRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape, dtype, tensor.CPU)
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	return out
}
