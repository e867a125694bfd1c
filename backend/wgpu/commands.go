// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/heat/gpucore"
)

// commandEncoder records into a HAL command encoder. The first recording
// error is kept and returned by Finish, which then discards the encoding.
type commandEncoder struct {
	adapter  *Adapter
	raw      hal.CommandEncoder
	label    string
	err      error
	passOpen bool
	finished bool
}

func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// BeginComputePass begins a logical compute pass. Each of its dispatches
// becomes a separate HAL pass.
func (e *commandEncoder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	switch {
	case e.finished:
		e.fail(ErrEncoderFinished)
	case e.passOpen:
		e.fail(fmt.Errorf("begin %q: %w", label, ErrPassOpen))
	}
	e.passOpen = true
	return &computePass{encoder: e, label: label}
}

// CopyBufferToBuffer records a buffer copy.
func (e *commandEncoder) CopyBufferToBuffer(src gpucore.BufferID, srcOffset uint64, dst gpucore.BufferID, dstOffset uint64, size uint64) {
	if e.finished {
		e.fail(ErrEncoderFinished)
		return
	}
	if e.passOpen {
		e.fail(fmt.Errorf("copy: %w", ErrPassOpen))
		return
	}
	s, err := e.adapter.buffer(src)
	if err != nil {
		e.fail(fmt.Errorf("copy source: %w", err))
		return
	}
	d, err := e.adapter.buffer(dst)
	if err != nil {
		e.fail(fmt.Errorf("copy destination: %w", err))
		return
	}
	switch {
	case !s.usage.Contains(gpucore.BufferUsageCopySrc):
		e.fail(fmt.Errorf("copy from %q: %w", s.label, gpucore.ErrUsage))
		return
	case !d.usage.Contains(gpucore.BufferUsageCopyDst):
		e.fail(fmt.Errorf("copy to %q: %w", d.label, gpucore.ErrUsage))
		return
	case srcOffset+size > s.size || dstOffset+size > d.size || size%4 != 0:
		e.fail(fmt.Errorf("copy %q to %q: %d bytes: %w", s.label, d.label, size, gpucore.ErrOutOfRange))
		return
	}
	e.raw.CopyBufferToBuffer(s.raw, d.raw, []hal.BufferCopy{
		{SrcOffset: srcOffset, DstOffset: dstOffset, Size: size},
	})
}

// Finish ends the encoding.
func (e *commandEncoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		return nil, fmt.Errorf("wgpu: finish %q: %w", e.label, ErrEncoderFinished)
	}
	e.finished = true
	if e.passOpen {
		e.fail(fmt.Errorf("finish: %w", ErrPassOpen))
	}
	if e.err != nil {
		e.raw.DiscardEncoding()
		return nil, fmt.Errorf("wgpu: encoder %q: %w", e.label, e.err)
	}
	raw, err := e.raw.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding %q: %w", e.label, err)
	}
	return &commandBuffer{adapter: e.adapter, raw: raw, label: e.label}, nil
}

// computePass tracks pipeline and bind group state and records every
// dispatch as its own HAL compute pass, so storage writes are ordered
// between dispatches.
type computePass struct {
	encoder  *commandEncoder
	label    string
	pipeline gpucore.ComputePipelineID
	groups   []gpucore.BindGroupID
	ended    bool
}

func (p *computePass) SetPipeline(pipeline gpucore.ComputePipelineID) {
	p.pipeline = pipeline
}

func (p *computePass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	for uint32(len(p.groups)) <= index {
		p.groups = append(p.groups, gpucore.InvalidID)
	}
	p.groups[index] = group
}

func (p *computePass) Dispatch(x, y, z uint32) {
	e := p.encoder
	if p.ended {
		e.fail(fmt.Errorf("dispatch on ended pass %q", p.label))
		return
	}
	if x == 0 || y == 0 || z == 0 {
		return
	}
	if limit := e.adapter.limits.MaxComputeWorkgroupsPerDimension; limit != 0 && (x > limit || y > limit || z > limit) {
		e.fail(fmt.Errorf("dispatch %q: %dx%dx%d exceeds %d", p.label, x, y, z, limit))
		return
	}

	a := e.adapter
	a.mu.Lock()
	pipe, ok := a.pipelines[p.pipeline]
	groups := make([]hal.BindGroup, len(p.groups))
	for i, id := range p.groups {
		if id == gpucore.InvalidID {
			continue
		}
		bg, found := a.bindGroups[id]
		if !found {
			ok = false
			break
		}
		groups[i] = bg
	}
	a.mu.Unlock()
	if !ok {
		e.fail(fmt.Errorf("dispatch %q: pipeline %d or bind groups %v: %w", p.label, p.pipeline, p.groups, gpucore.ErrUnknownResource))
		return
	}

	pass := e.raw.BeginComputePass(&hal.ComputePassDescriptor{Label: p.label})
	pass.SetPipeline(pipe)
	for i, bg := range groups {
		if bg != nil {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
	}
	pass.Dispatch(x, y, z)
	pass.End()
}

func (p *computePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.encoder.passOpen = false
}

// commandBuffer is a finished HAL command buffer.
type commandBuffer struct {
	adapter   *Adapter
	raw       hal.CommandBuffer
	label     string
	submitted bool
}

func (c *commandBuffer) Label() string { return c.label }
