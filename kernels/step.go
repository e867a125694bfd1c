// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernels

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
)

// Step is one dispatch: a pipeline, the bind group it reads and writes,
// and the workgroup grid. Every kernel is a fixed list of steps built once
// at construction.
type Step struct {
	Label      string
	Pipeline   gpucore.ComputePipelineID
	BindGroup  gpucore.BindGroupID
	Workgroups gpucore.Workgroups
}

// Encode attaches the step to an open compute pass.
func (s Step) Encode(pass gpucore.ComputePassEncoder) {
	pass.SetPipeline(s.Pipeline)
	pass.SetBindGroup(0, s.BindGroup)
	pass.Dispatch(s.Workgroups[0], s.Workgroups[1], s.Workgroups[2])
}

// Kernel is anything that can be expressed as an ordered list of steps.
// SpMV, Dot, Update and ScaledUpdate all are.
type Kernel interface {
	Steps() []Step
}

// Sequence is a flat, ordered list of steps.
//
// Steps in a sequence run in order: successive dispatches in one pass see
// the writes of the ones before them.
type Sequence []Step

// NewSequence flattens kernels into a single sequence.
func NewSequence(kernels ...Kernel) Sequence {
	n := 0
	for _, k := range kernels {
		n += len(k.Steps())
	}
	seq := make(Sequence, 0, n)
	for _, k := range kernels {
		seq = append(seq, k.Steps()...)
	}
	return seq
}

// Steps returns the sequence itself, so sequences nest.
func (s Sequence) Steps() []Step { return s }

// Encode attaches every step to pass in order.
func (s Sequence) Encode(pass gpucore.ComputePassEncoder) {
	for _, step := range s {
		step.Encode(pass)
	}
}

// Submit records kernel into one compute pass of a new command buffer and
// submits it. It returns after submission without waiting.
func Submit(a gpucore.Adapter, label string, k Kernel) error {
	enc, err := a.CreateCommandEncoder(label)
	if err != nil {
		return fmt.Errorf("kernels: %s: %w", label, err)
	}
	pass := enc.BeginComputePass(label)
	NewSequence(k).Encode(pass)
	pass.End()
	cb, err := enc.Finish()
	if err != nil {
		return fmt.Errorf("kernels: %s: %w", label, err)
	}
	if err := a.Submit(cb); err != nil {
		return fmt.Errorf("kernels: %s: submit: %w", label, err)
	}
	return nil
}
