// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"maps"
	"sync"

	"github.com/gogpu/heat/gpucore"
)

// command is one recorded operation, executed on the executor goroutine.
type command interface {
	run(a *Adapter) error
}

type copyCommand struct {
	src, dst       gpucore.BufferID
	srcOff, dstOff uint64
	size           uint64
}

type dispatchCommand struct {
	pass     string
	pipeline gpucore.ComputePipelineID
	groups   map[uint32]gpucore.BindGroupID
	count    gpucore.Workgroups
}

// commandEncoder records commands for a single command buffer.
type commandEncoder struct {
	adapter  *Adapter
	label    string
	cmds     []command
	pass     *computePass
	finished bool
	err      error
}

func (e *commandEncoder) fail(err error) {
	if e.err == nil {
		e.err = fmt.Errorf("software: encoder %q: %w", e.label, err)
	}
}

// BeginComputePass begins a compute pass.
func (e *commandEncoder) BeginComputePass(label string) gpucore.ComputePassEncoder {
	switch {
	case e.finished:
		e.fail(ErrEncoderFinished)
	case e.pass != nil:
		e.fail(fmt.Errorf("pass %q begun inside pass %q: %w", label, e.pass.label, ErrPassOpen))
	}
	p := &computePass{encoder: e, label: label, groups: make(map[uint32]gpucore.BindGroupID)}
	e.pass = p
	return p
}

// CopyBufferToBuffer records a copy.
func (e *commandEncoder) CopyBufferToBuffer(src gpucore.BufferID, srcOffset uint64, dst gpucore.BufferID, dstOffset uint64, size uint64) {
	switch {
	case e.finished:
		e.fail(ErrEncoderFinished)
		return
	case e.pass != nil:
		e.fail(fmt.Errorf("copy inside pass %q: %w", e.pass.label, ErrPassOpen))
		return
	case srcOffset%4 != 0 || dstOffset%4 != 0 || size%4 != 0:
		e.fail(fmt.Errorf("copy of %d bytes at %d -> %d not word aligned: %w", size, srcOffset, dstOffset, gpucore.ErrOutOfRange))
		return
	}
	e.cmds = append(e.cmds, &copyCommand{src: src, dst: dst, srcOff: srcOffset, dstOff: dstOffset, size: size})
}

// Finish ends recording.
func (e *commandEncoder) Finish() (gpucore.CommandBuffer, error) {
	if e.finished {
		e.fail(ErrEncoderFinished)
	}
	if e.pass != nil {
		e.fail(fmt.Errorf("finish with pass %q open: %w", e.pass.label, ErrPassOpen))
	}
	e.finished = true
	if e.err != nil {
		return nil, e.err
	}
	return &commandBuffer{adapter: e.adapter, label: e.label, cmds: e.cmds}, nil
}

// computePass tracks the pipeline and bind group state of an open pass.
type computePass struct {
	encoder  *commandEncoder
	label    string
	pipeline gpucore.ComputePipelineID
	groups   map[uint32]gpucore.BindGroupID
	ended    bool
}

// SetPipeline sets the active compute pipeline.
func (p *computePass) SetPipeline(pipeline gpucore.ComputePipelineID) {
	p.pipeline = pipeline
}

// SetBindGroup sets a bind group at the given index.
func (p *computePass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	p.groups[index] = group
}

// Dispatch records a dispatch with the current pipeline and bind groups.
func (p *computePass) Dispatch(x, y, z uint32) {
	if p.ended {
		p.encoder.fail(fmt.Errorf("dispatch after End of pass %q", p.label))
		return
	}
	p.encoder.cmds = append(p.encoder.cmds, &dispatchCommand{
		pass:     p.label,
		pipeline: p.pipeline,
		groups:   maps.Clone(p.groups),
		count:    gpucore.Workgroups{x, y, z},
	})
}

// End ends the compute pass.
func (p *computePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	if p.encoder.pass == p {
		p.encoder.pass = nil
	}
}

// commandBuffer is a finished recording.
type commandBuffer struct {
	adapter   *Adapter
	label     string
	cmds      []command
	submitted bool
}

// Label returns the encoder label.
func (c *commandBuffer) Label() string { return c.label }

// execute runs every command of c in order, stopping at the first failure.
func (a *Adapter) execute(c *commandBuffer) error {
	for i, cmd := range c.cmds {
		if err := cmd.run(a); err != nil {
			return fmt.Errorf("command buffer %q command %d: %w", c.label, i, err)
		}
	}
	return nil
}

func (c *copyCommand) run(a *Adapter) error {
	a.mu.Lock()
	src, err := a.bufferLocked(c.src)
	if err == nil {
		var dst *buffer
		dst, err = a.bufferLocked(c.dst)
		if err == nil {
			a.mu.Unlock()
			return c.apply(src, dst)
		}
	}
	a.mu.Unlock()
	return fmt.Errorf("copy: %w", err)
}

func (c *copyCommand) apply(src, dst *buffer) error {
	switch {
	case !src.usage.Contains(gpucore.BufferUsageCopySrc):
		return fmt.Errorf("copy from %q: %w", src.label, gpucore.ErrUsage)
	case !dst.usage.Contains(gpucore.BufferUsageCopyDst):
		return fmt.Errorf("copy to %q: %w", dst.label, gpucore.ErrUsage)
	case c.srcOff+c.size > uint64(len(src.words))*4 || c.dstOff+c.size > uint64(len(dst.words))*4:
		return fmt.Errorf("copy %q -> %q: %w", src.label, dst.label, gpucore.ErrOutOfRange)
	}
	n := c.size / 4
	copy(dst.words[c.dstOff/4:c.dstOff/4+n], src.words[c.srcOff/4:c.srcOff/4+n])
	return nil
}

func (d *dispatchCommand) run(a *Adapter) error {
	for _, n := range d.count {
		if n > maxWorkgroupsPerDim {
			return fmt.Errorf("pass %q: dispatch %v: %w", d.pass, d.count, ErrTooManyWorkgroups)
		}
	}

	p, bindings, err := a.resolveDispatch(d)
	if err != nil {
		return fmt.Errorf("pass %q: %w", d.pass, err)
	}
	total := d.count.Total()
	if total == 0 {
		return nil
	}

	cx, cy := d.count[0], d.count[1]
	var (
		once     sync.Once
		panicErr error
	)
	a.pool.ForEach(int(total), func(i int) {
		defer func() {
			if r := recover(); r != nil {
				once.Do(func() {
					panicErr = fmt.Errorf("pass %q pipeline %q workgroup %d: %v", d.pass, p.label, i, r)
				})
			}
		}()
		idx := uint32(i)
		p.program(gpucore.Group{
			ID:    [3]uint32{idx % cx, (idx / cx) % cy, idx / (cx * cy)},
			Count: d.count,
		}, bindings)
	})
	return panicErr
}

// resolveDispatch looks up the pipeline and bind groups of a dispatch and
// builds the host view of the bound buffers.
func (a *Adapter) resolveDispatch(d *dispatchCommand) (*pipeline, *gpucore.Bindings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if d.pipeline == gpucore.InvalidID {
		return nil, nil, ErrMissingPipeline
	}
	p, ok := a.pipelines[d.pipeline]
	if !ok {
		return nil, nil, fmt.Errorf("pipeline %d: %w", d.pipeline, gpucore.ErrUnknownResource)
	}

	bindings := gpucore.NewBindings()
	for idx, layoutID := range p.layout.groups {
		gid, ok := d.groups[uint32(idx)]
		if !ok {
			return nil, nil, fmt.Errorf("pipeline %q group %d: %w", p.label, idx, ErrMissingBindGroup)
		}
		g, ok := a.groups[gid]
		if !ok {
			return nil, nil, fmt.Errorf("pipeline %q group %d: bind group %d: %w", p.label, idx, gid, gpucore.ErrUnknownResource)
		}
		if g.layout != layoutID {
			return nil, nil, fmt.Errorf("pipeline %q group %d: bind group %q: %w", p.label, idx, g.label, gpucore.ErrLayoutMismatch)
		}
		for _, e := range g.entries {
			buf, err := a.bufferLocked(e.buffer)
			if err != nil {
				return nil, nil, fmt.Errorf("bind group %q binding %d: %w", g.label, e.binding, err)
			}
			bindings.Set(e.binding, buf.words[e.first:e.first+e.count])
		}
	}
	return p, bindings, nil
}
