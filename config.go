// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package heat

import (
	"fmt"
	"math"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/kernels"
	"github.com/gogpu/heat/solver"
	"github.com/gogpu/heat/sparse"
)

// Config describes the simulated problem.
type Config struct {
	// N is the number of grid points along each axis. The system has N×N
	// unknowns. Must be at least 2.
	N int

	// Alpha is the thermal diffusivity. Must be positive.
	Alpha float32

	// Dt is the time step. Must be positive.
	Dt float32

	// CGSteps is the fixed number of CG iterations per time step. Zero
	// keeps only the explicit half-step and the residual initialization.
	CGSteps int
}

// DefaultConfig returns a 512×512 grid with α = 1e-3, dt = 1e-2 and the
// default CG budget.
func DefaultConfig() Config {
	return Config{
		N:       512,
		Alpha:   1e-3,
		Dt:      1e-2,
		CGSteps: solver.DefaultMaxSteps,
	}
}

// Unknowns returns N×N.
func (c Config) Unknowns() int { return c.N * c.N }

// Gamma returns the Crank–Nicolson coupling α·dt/(2h²), h = 1/N.
func (c Config) Gamma() float32 {
	h := 1 / float32(c.N)
	return c.Alpha * c.Dt / (2 * h * h)
}

// DeviceBytes estimates the device memory a simulation allocates: both
// five-diagonal operators, the two state buffers, the right-hand side and
// the solver scratch. Kernel parameter blocks are not counted.
func (c Config) DeviceBytes() uint64 {
	m := uint64(c.Unknowns())
	matrix := 5*m*4 + 5*4 + sparse.ParamsSize
	vectors := 3*m*4 + 4*m*4 + 2*4 + uint64(kernels.PartialSums(uint32(m)))*4
	return 2*matrix + vectors
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.N < 2:
		return fmt.Errorf("%w: N = %d, need at least 2", ErrInvalidConfig, c.N)
	case c.N > math.MaxUint16:
		return fmt.Errorf("%w: N = %d, at most %d", ErrInvalidConfig, c.N, math.MaxUint16)
	case !(c.Alpha > 0) || math.IsInf(float64(c.Alpha), 0):
		return fmt.Errorf("%w: Alpha = %v, must be positive and finite", ErrInvalidConfig, c.Alpha)
	case !(c.Dt > 0) || math.IsInf(float64(c.Dt), 0):
		return fmt.Errorf("%w: Dt = %v, must be positive and finite", ErrInvalidConfig, c.Dt)
	case c.CGSteps < 0:
		return fmt.Errorf("%w: CGSteps = %d, must not be negative", ErrInvalidConfig, c.CGSteps)
	}
	return nil
}

// fits checks the config against device limits: the largest buffer is the
// five-diagonal matrix data, and the largest grid is the SpMV dispatch.
func (c Config) fits(caps gpucore.Capabilities) error {
	m := uint64(c.Unknowns())
	if data := m * 5 * 4; caps.MaxBufferSize != 0 && data > caps.MaxBufferSize {
		return fmt.Errorf("%w: %d-byte matrix exceeds %s max buffer size %d",
			ErrInvalidConfig, data, caps.Name, caps.MaxBufferSize)
	}
	groups := gpucore.WorkgroupCount(uint32(m), kernels.SpMVWorkgroupSize)
	if limit := caps.MaxComputeWorkgroupsPerDimension; limit != 0 && groups > limit {
		return fmt.Errorf("%w: %d workgroups exceed %s limit %d",
			ErrInvalidConfig, groups, caps.Name, limit)
	}
	return nil
}
