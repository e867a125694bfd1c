// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package heat

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/kernels"
	"github.com/gogpu/heat/pingpong"
	"github.com/gogpu/heat/solver"
	"github.com/gogpu/heat/sparse"
)

// plan is everything one step parity needs, built once.
type plan struct {
	current  gpucore.BufferID
	next     gpucore.BufferID
	explicit kernels.Sequence // rhs = B·current
	cg       *solver.CG       // A·next = rhs
}

// Simulation advances the heat equation on an N×N grid with the
// Crank–Nicolson scheme. Each step computes rhs = B·u on the device and
// then solves A·u′ = rhs with a fixed-budget CG, reading u from one state
// buffer and writing u′ into the other. The roles of the two buffers swap
// every step.
//
// A Simulation is not safe for concurrent use. Step, Advance and Seed
// submit work and return without waiting; Read is the only method that
// waits for the device.
type Simulation struct {
	adapter gpucore.Adapter
	cfg     Config
	label   string

	lib     *kernels.Library
	ownsLib bool

	implicit *sparse.Matrix
	explicit *sparse.Matrix
	state    [2]gpucore.BufferID
	rhs      gpucore.BufferID
	scratch  *solver.Scratch

	plans  *pingpong.Directional[*plan]
	closed bool
}

// New builds the operators, buffers and kernels of a simulation. The state
// starts at zero; call Seed to set the initial field.
//
// Construction failures release everything created so far.
func New(a gpucore.Adapter, cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.fits(a.Capabilities()); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	s := &Simulation{adapter: a, cfg: cfg, label: o.label, lib: o.library}
	if err := s.build(); err != nil {
		s.release()
		return nil, err
	}
	Logger().Info("heat: simulation built",
		"n", cfg.N, "alpha", cfg.Alpha, "dt", cfg.Dt,
		"gamma", cfg.Gamma(), "cg_steps", cfg.CGSteps,
		"device", a.Capabilities().Name)
	return s, nil
}

func (s *Simulation) build() error {
	a, cfg := s.adapter, s.cfg
	if s.lib == nil {
		lib, err := kernels.NewLibrary(a)
		if err != nil {
			return fmt.Errorf("heat: %w", err)
		}
		s.lib, s.ownsLib = lib, true
	}

	implicit, explicit, err := sparse.HeatOperators(cfg.N, cfg.Alpha, cfg.Dt)
	if err != nil {
		return fmt.Errorf("heat: operators: %w", err)
	}
	if s.implicit, err = sparse.Upload(a, implicit, s.label+" A"); err != nil {
		return fmt.Errorf("heat: %w", err)
	}
	if s.explicit, err = sparse.Upload(a, explicit, s.label+" B"); err != nil {
		return fmt.Errorf("heat: %w", err)
	}

	m := uint32(cfg.Unknowns())
	for i, name := range []string{"u", "u'"} {
		if s.state[i], err = s.vector(name, m); err != nil {
			return err
		}
	}
	if s.rhs, err = s.vector("rhs", m); err != nil {
		return err
	}
	if s.scratch, err = solver.NewScratch(a, m, s.label+" cg"); err != nil {
		return fmt.Errorf("heat: %w", err)
	}

	forward, err := s.plan(pingpong.Forward, s.state[0], s.state[1])
	if err != nil {
		return err
	}
	backward, err := s.plan(pingpong.Backward, s.state[1], s.state[0])
	if err != nil {
		return err
	}
	s.plans = pingpong.New(forward, backward)
	return nil
}

func (s *Simulation) vector(name string, n uint32) (gpucore.BufferID, error) {
	id, err := s.adapter.CreateBuffer(&gpucore.BufferDesc{
		Label: s.label + " " + name,
		Size:  uint64(n) * 4,
		Usage: gpucore.UsageVector,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("heat: create %s: %w", name, err)
	}
	return id, nil
}

// plan builds the kernels of one parity: the explicit product of the
// current state into rhs, and the solve into the next state.
func (s *Simulation) plan(dir pingpong.Direction, current, next gpucore.BufferID) (*plan, error) {
	label := s.label + " " + dir.String()
	spmv, err := kernels.NewSpMV(s.lib, s.explicit, current, s.rhs, label+" rhs=Bu")
	if err != nil {
		return nil, fmt.Errorf("heat: %w", err)
	}
	cg, err := solver.New(s.lib, s.implicit, s.rhs, next, s.scratch,
		solver.WithMaxSteps(s.cfg.CGSteps),
		solver.WithLabel(label+" cg"))
	if err != nil {
		return nil, fmt.Errorf("heat: %w", err)
	}
	return &plan{
		current:  current,
		next:     next,
		explicit: kernels.NewSequence(spmv),
		cg:       cg,
	}, nil
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config { return s.cfg }

// Library returns the kernel library the simulation's kernels come from.
func (s *Simulation) Library() *kernels.Library { return s.lib }

// Seed uploads the initial field, N×N row-major values, into the current
// state buffer. The upload is ordered after all submitted steps.
func (s *Simulation) Seed(field []float32) error {
	if s.closed {
		return ErrClosed
	}
	if len(field) != s.cfg.Unknowns() {
		return fmt.Errorf("%w: got %d values, want %d", ErrFieldSize, len(field), s.cfg.Unknowns())
	}
	if err := gpucore.WriteFloat32(s.adapter, s.Current(), field); err != nil {
		return fmt.Errorf("heat: seed: %w", err)
	}
	return nil
}

// Step records one time step into a single command buffer, submits it and
// flips the direction. It does not wait for the device.
func (s *Simulation) Step() error {
	if s.closed {
		return ErrClosed
	}
	p := s.plans.Select()
	label := fmt.Sprintf("%s step %d", s.label, s.plans.Steps())

	enc, err := s.adapter.CreateCommandEncoder(label)
	if err != nil {
		return fmt.Errorf("heat: %s: %w", label, err)
	}
	pass := enc.BeginComputePass(label + " explicit")
	p.explicit.Encode(pass)
	pass.End()
	p.cg.Encode(enc)

	cb, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("heat: %s: %w", label, err)
	}
	if err := s.adapter.Submit(cb); err != nil {
		return fmt.Errorf("heat: %s: submit: %w", label, err)
	}
	s.plans.Advance()
	return nil
}

// Advance submits k steps. It stops at the first failure; the steps before
// it stay submitted.
func (s *Simulation) Advance(k int) error {
	for i := range k {
		if err := s.Step(); err != nil {
			return fmt.Errorf("heat: advance %d/%d: %w", i+1, k, err)
		}
	}
	return nil
}

// Steps returns the number of submitted steps.
func (s *Simulation) Steps() uint64 { return s.plans.Steps() }

// Time returns the simulated time, Steps·Dt.
func (s *Simulation) Time() float64 { return float64(s.Steps()) * float64(s.cfg.Dt) }

// Direction returns the parity of the next step.
func (s *Simulation) Direction() pingpong.Direction { return s.plans.Direction() }

// Current returns the buffer holding the latest state. After Close it is
// gpucore.InvalidID.
func (s *Simulation) Current() gpucore.BufferID {
	if s.closed {
		return gpucore.InvalidID
	}
	return s.plans.Select().current
}

// Next returns the buffer the next step writes. After Close it is
// gpucore.InvalidID.
func (s *Simulation) Next() gpucore.BufferID {
	if s.closed {
		return gpucore.InvalidID
	}
	return s.plans.Select().next
}

// Read waits for all submitted steps and returns the current field.
func (s *Simulation) Read() ([]float32, error) {
	if s.closed {
		return nil, ErrClosed
	}
	field, err := gpucore.ReadFloat32(s.adapter, s.Current(), s.cfg.Unknowns())
	if err != nil {
		return nil, fmt.Errorf("heat: read: %w", err)
	}
	return field, nil
}

// Close waits for submitted work, then releases every buffer and kernel
// the simulation owns. The adapter is not destroyed. Close is safe to call
// multiple times; later calls return ErrClosed.
func (s *Simulation) Close() error {
	if s.closed {
		return ErrClosed
	}
	err := s.adapter.WaitIdle()
	if err != nil {
		Logger().Warn("heat: work failed before close", "error", err)
	}
	s.release()
	s.closed = true
	return err
}

// release destroys whatever build created, in reverse order.
func (s *Simulation) release() {
	if s.ownsLib && s.lib != nil {
		s.lib.Close()
	}
	s.lib = nil
	if s.scratch != nil {
		s.scratch.Release()
	}
	for _, id := range []*gpucore.BufferID{&s.rhs, &s.state[1], &s.state[0]} {
		if *id != gpucore.InvalidID {
			s.adapter.DestroyBuffer(*id)
			*id = gpucore.InvalidID
		}
	}
	for _, m := range []*sparse.Matrix{s.explicit, s.implicit} {
		if m != nil {
			m.Release()
		}
	}
}
