// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package solver

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
	"github.com/gogpu/heat/kernels"
	"github.com/gogpu/heat/sparse"
)

// DefaultMaxSteps is the iteration budget when none is given.
const DefaultMaxSteps = 1000

// Option configures a CG during creation.
type Option func(*options)

type options struct {
	maxSteps int
	label    string
}

func defaultOptions() options {
	return options{maxSteps: DefaultMaxSteps, label: "cg"}
}

// WithMaxSteps sets the fixed iteration count. Zero runs only the
// initialization; negative values are ignored.
func WithMaxSteps(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxSteps = n
		}
	}
}

// WithLabel sets the debug label prefix of every step and pass.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}

// CG solves A·x = b for a symmetric positive-definite A.
//
// x holds the initial guess when the solve runs and is overwritten with
// the solution. The scratch buffers are left holding the last
// iteration's residual and direction.
type CG struct {
	adapter  gpucore.Adapter
	label    string
	maxSteps int
	n        uint32
	scratch  *Scratch
	x        gpucore.BufferID

	// init computes r = b - A·x. p is copied from r between init and the
	// iterations.
	init kernels.Sequence
	// iteration is one CG step:
	//
	//	σ  = r·r
	//	q  = A·p
	//	σ' = p·q
	//	x  = x + (σ/σ')·p
	//	r  = r - (σ/σ')·q
	//	σ' = r·r
	//	p  = r + (σ'/σ)·p
	iteration kernels.Sequence
}

// New builds the initialization and iteration kernels of a solve of
// A·x = b over scratch. Every kernel is built here; recording a solve
// creates nothing.
func New(lib *kernels.Library, a *sparse.Matrix, b, x gpucore.BufferID, scratch *Scratch, opts ...Option) (*CG, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if a.Rows != a.Cols {
		return nil, fmt.Errorf("solver: %s: %dx%d: %w", o.label, a.Rows, a.Cols, ErrNotSquare)
	}
	if a.Rows != scratch.N() {
		return nil, fmt.Errorf("solver: %s: matrix has %d rows, scratch %d: %w", o.label, a.Rows, scratch.N(), ErrSizeMismatch)
	}
	if b == x {
		return nil, fmt.Errorf("solver: %s: %w", o.label, ErrAliased)
	}

	cg := &CG{
		adapter:  lib.Adapter(),
		label:    o.label,
		maxSteps: o.maxSteps,
		n:        a.Rows,
		scratch:  scratch,
		x:        x,
	}
	s := scratch
	n := a.Rows
	name := func(stage string) string { return o.label + " " + stage }

	ax, err := kernels.NewSpMV(lib, a, x, s.R, name("r=Ax"))
	if err != nil {
		return nil, err
	}
	residual, err := kernels.NewUpdate(lib, n, b, s.R, name("r=b-r"))
	if err != nil {
		return nil, err
	}
	cg.init = kernels.NewSequence(ax, residual)

	sigma, err := kernels.NewDot(lib, n, s.R, s.R, s.Tmp0, s.Tmp1, s.Sigma, name("sigma=r.r"))
	if err != nil {
		return nil, err
	}
	ap, err := kernels.NewSpMV(lib, a, s.P, s.Q, name("q=Ap"))
	if err != nil {
		return nil, err
	}
	curvature, err := kernels.NewDot(lib, n, s.P, s.Q, s.Tmp0, s.Tmp1, s.SigmaPrime, name("sigma'=p.q"))
	if err != nil {
		return nil, err
	}
	xStep, err := kernels.NewScaledUpdate(lib, kernels.Add, kernels.ScaleSource, n, s.Sigma, s.SigmaPrime, s.P, x, name("x+=ap"))
	if err != nil {
		return nil, err
	}
	rStep, err := kernels.NewScaledUpdate(lib, kernels.Sub, kernels.ScaleSource, n, s.Sigma, s.SigmaPrime, s.Q, s.R, name("r-=aq"))
	if err != nil {
		return nil, err
	}
	norm, err := kernels.NewDot(lib, n, s.R, s.R, s.Tmp0, s.Tmp1, s.SigmaPrime, name("sigma'=r.r"))
	if err != nil {
		return nil, err
	}
	pStep, err := kernels.NewScaledUpdate(lib, kernels.Add, kernels.ScaleTarget, n, s.SigmaPrime, s.Sigma, s.R, s.P, name("p=r+bp"))
	if err != nil {
		return nil, err
	}
	cg.iteration = kernels.NewSequence(sigma, ap, curvature, xStep, rStep, norm, pStep)

	logger.Get().Debug("solver: cg built",
		"label", o.label, "n", n, "max_steps", o.maxSteps,
		"dispatches_per_iteration", len(cg.iteration))
	return cg, nil
}

// MaxSteps returns the fixed iteration count.
func (cg *CG) MaxSteps() int { return cg.maxSteps }

// Solution returns the buffer the solution is written to.
func (cg *CG) Solution() gpucore.BufferID { return cg.x }

// Initialization returns the residual initialization steps.
func (cg *CG) Initialization() kernels.Sequence { return cg.init }

// Iteration returns the steps of one iteration.
func (cg *CG) Iteration() kernels.Sequence { return cg.iteration }

// Encode records a complete solve into enc: the residual initialization
// pass, the copy of r into p, and a pass running the iteration MaxSteps
// times. Nothing is submitted.
func (cg *CG) Encode(enc gpucore.CommandEncoder) {
	pass := enc.BeginComputePass(cg.label + " init")
	cg.init.Encode(pass)
	pass.End()

	enc.CopyBufferToBuffer(cg.scratch.R, 0, cg.scratch.P, 0, uint64(cg.n)*4)

	if cg.maxSteps == 0 {
		return
	}
	pass = enc.BeginComputePass(cg.label + " iterate")
	for range cg.maxSteps {
		cg.iteration.Encode(pass)
	}
	pass.End()
}

// Solve records a solve into its own command buffer and submits it. It
// returns once the work is queued, without waiting for the device.
func (cg *CG) Solve() error {
	enc, err := cg.adapter.CreateCommandEncoder(cg.label)
	if err != nil {
		return fmt.Errorf("solver: %s: %w", cg.label, err)
	}
	cg.Encode(enc)
	cb, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("solver: %s: %w", cg.label, err)
	}
	if err := cg.adapter.Submit(cb); err != nil {
		return fmt.Errorf("solver: %s: submit: %w", cg.label, err)
	}
	return nil
}
