// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
)

// fenceTimeout bounds every blocking wait on the device.
const fenceTimeout = 30 * time.Second

type buffer struct {
	raw   hal.Buffer
	label string
	size  uint64
	usage gpucore.BufferUsage
}

type bindGroupLayout struct {
	raw     hal.BindGroupLayout
	entries map[uint32]gpucore.BindingType
}

// inflight is a submission the fence has not been seen to pass yet.
type inflight struct {
	value   uint64
	buffers []hal.CommandBuffer
}

// Adapter is a gpucore.Adapter backed by a hal.Device.
//
// Adapter is safe for concurrent use. Command encoders are not; each
// encoder belongs to the goroutine recording it.
type Adapter struct {
	mu sync.Mutex

	instance hal.Instance // nil for a wrapped device
	device   hal.Device
	queue    hal.Queue
	external bool

	name   string
	limits gputypes.Limits

	nextID    uint64
	destroyed bool

	buffers         map[gpucore.BufferID]*buffer
	modules         map[gpucore.ShaderModuleID]hal.ShaderModule
	layouts         map[gpucore.BindGroupLayoutID]*bindGroupLayout
	pipelineLayouts map[gpucore.PipelineLayoutID]hal.PipelineLayout
	pipelines       map[gpucore.ComputePipelineID]hal.ComputePipeline
	bindGroups      map[gpucore.BindGroupID]hal.BindGroup

	fence      hal.Fence
	fenceValue uint64 // last value submitted
	pending    []inflight
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New wraps a device and queue owned by the caller. Destroy releases the
// resources created through the adapter but not the device.
func New(device hal.Device, queue hal.Queue) (*Adapter, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	a := newAdapter(device, queue, "hal device", gputypes.DefaultLimits())
	a.external = true
	if err := a.init(); err != nil {
		return nil, err
	}
	return a, nil
}

func newAdapter(device hal.Device, queue hal.Queue, name string, limits gputypes.Limits) *Adapter {
	return &Adapter{
		device:          device,
		queue:           queue,
		name:            name,
		limits:          limits,
		buffers:         make(map[gpucore.BufferID]*buffer),
		modules:         make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		layouts:         make(map[gpucore.BindGroupLayoutID]*bindGroupLayout),
		pipelineLayouts: make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		pipelines:       make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		bindGroups:      make(map[gpucore.BindGroupID]hal.BindGroup),
	}
}

func (a *Adapter) init() error {
	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	a.fence = fence
	return nil
}

func (a *Adapter) alive() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.ErrAdapterDestroyed
	}
	return nil
}

// newIDLocked returns a fresh non-zero ID. Must be called with mu held.
func (a *Adapter) newIDLocked() uint64 {
	a.nextID++
	return a.nextID
}

// Capabilities returns the device limits the adapter was opened with.
func (a *Adapter) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		Name:                              a.name,
		MaxBufferSize:                     a.limits.MaxBufferSize,
		MaxComputeWorkgroupsPerDimension:  a.limits.MaxComputeWorkgroupsPerDimension,
		MaxComputeInvocationsPerWorkgroup: a.limits.MaxComputeInvocationsPerWorkgroup,
	}
}

// === Buffers ===

// CreateBuffer creates a zero-initialized device buffer.
func (a *Adapter) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if err := gpucore.ValidateBufferDesc(desc); err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer: %w", err)
	}
	if err := a.alive(); err != nil {
		return gpucore.InvalidID, err
	}
	if limit := a.limits.MaxBufferSize; limit != 0 && desc.Size > limit {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %d bytes exceeds %d: %w",
			desc.Label, desc.Size, limit, gpucore.ErrInvalidBuffer)
	}

	raw, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: convertBufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		a.device.DestroyBuffer(raw)
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	id := gpucore.BufferID(a.newIDLocked())
	a.buffers[id] = &buffer{raw: raw, label: desc.Label, size: desc.Size, usage: desc.Usage}
	logger.Get().Debug("wgpu: buffer created", "label", desc.Label, "size", desc.Size, "usage", desc.Usage)
	return id, nil
}

// DestroyBuffer releases a buffer.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	buf, ok := a.buffers[id]
	delete(a.buffers, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyBuffer(buf.raw)
	}
}

func (a *Adapter) buffer(id gpucore.BufferID) (*buffer, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	buf, ok := a.buffers[id]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w", id, gpucore.ErrUnknownResource)
	}
	return buf, nil
}

// WriteBuffer uploads data through the queue.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	buf, err := a.buffer(id)
	if err != nil {
		return fmt.Errorf("wgpu: write buffer: %w", err)
	}
	if !buf.usage.Contains(gpucore.BufferUsageCopyDst) {
		return fmt.Errorf("wgpu: write buffer %q: %w", buf.label, gpucore.ErrUsage)
	}
	if offset%4 != 0 || len(data)%4 != 0 || offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("wgpu: write buffer %q: %d bytes at %d: %w", buf.label, len(data), offset, gpucore.ErrOutOfRange)
	}
	if len(data) == 0 {
		return nil
	}
	a.queue.WriteBuffer(buf.raw, offset, data)
	return nil
}

// ReadBuffer copies the range into a mappable staging buffer, waits for
// every submission up to and including the copy, and returns the bytes.
func (a *Adapter) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	buf, err := a.buffer(id)
	if err != nil {
		return nil, fmt.Errorf("wgpu: read buffer: %w", err)
	}
	if !buf.usage.Contains(gpucore.BufferUsageCopySrc) {
		return nil, fmt.Errorf("wgpu: read buffer %q: %w", buf.label, gpucore.ErrUsage)
	}
	if offset%4 != 0 || size%4 != 0 || offset+size > buf.size {
		return nil, fmt.Errorf("wgpu: read buffer %q: %d bytes at %d: %w", buf.label, size, offset, gpucore.ErrOutOfRange)
	}
	if size == 0 {
		return []byte{}, nil
	}

	staging, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: buf.label + " readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: read buffer %q: staging: %w", buf.label, err)
	}
	defer a.device.DestroyBuffer(staging)

	enc, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: read buffer %q: %w", buf.label, err)
	}
	if err := enc.BeginEncoding("readback"); err != nil {
		return nil, fmt.Errorf("wgpu: read buffer %q: begin encoding: %w", buf.label, err)
	}
	enc.CopyBufferToBuffer(buf.raw, staging, []hal.BufferCopy{
		{SrcOffset: offset, DstOffset: 0, Size: size},
	})
	cb, err := enc.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: read buffer %q: end encoding: %w", buf.label, err)
	}
	if err := a.submit([]hal.CommandBuffer{cb}); err != nil {
		a.device.FreeCommandBuffer(cb)
		return nil, fmt.Errorf("wgpu: read buffer %q: %w", buf.label, err)
	}
	if err := a.WaitIdle(); err != nil {
		return nil, fmt.Errorf("wgpu: read buffer %q: %w", buf.label, err)
	}

	out := make([]byte, size)
	if err := a.queue.ReadBuffer(staging, 0, out); err != nil {
		return nil, fmt.Errorf("wgpu: read buffer %q: map: %w", buf.label, err)
	}
	return out, nil
}

// === Shaders and pipelines ===

// CreateShaderModule compiles WGSL. Host programs are ignored.
func (a *Adapter) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc == nil || desc.WGSL == "" {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create shader module: empty WGSL source")
	}
	if err := a.alive(); err != nil {
		return gpucore.InvalidID, err
	}
	raw, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.WGSL},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: compile %s shader: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := gpucore.ShaderModuleID(a.newIDLocked())
	a.modules[id] = raw
	logger.Get().Debug("wgpu: shader module created", "label", desc.Label)
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *Adapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	raw, ok := a.modules[id]
	delete(a.modules, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyShaderModule(raw)
	}
}

// CreateBindGroupLayout creates a compute-visible buffer layout.
func (a *Adapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: nil bind group layout descriptor")
	}
	if err := a.alive(); err != nil {
		return gpucore.InvalidID, err
	}
	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	kinds := make(map[uint32]gpucore.BindingType, len(desc.Entries))
	for i, e := range desc.Entries {
		if _, dup := kinds[e.Binding]; dup {
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group layout %q: duplicate binding %d: %w",
				desc.Label, e.Binding, gpucore.ErrLayoutMismatch)
		}
		entry, err := convertLayoutEntry(e)
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group layout %q: %w", desc.Label, err)
		}
		entries[i] = entry
		kinds[e.Binding] = e.Type
	}

	raw, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create bind group layout %q: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := gpucore.BindGroupLayoutID(a.newIDLocked())
	a.layouts[id] = &bindGroupLayout{raw: raw, entries: kinds}
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *Adapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	l, ok := a.layouts[id]
	delete(a.layouts, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyBindGroupLayout(l.raw)
	}
}

// CreatePipelineLayout creates a pipeline layout from bind group layouts.
func (a *Adapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	raws := make([]hal.BindGroupLayout, len(layouts))
	for i, id := range layouts {
		l, ok := a.layouts[id]
		if !ok {
			a.mu.Unlock()
			return gpucore.InvalidID, fmt.Errorf("wgpu: pipeline layout: bind group layout %d: %w", id, gpucore.ErrUnknownResource)
		}
		raws[i] = l.raw
	}
	a.mu.Unlock()

	raw, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{BindGroupLayouts: raws})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := gpucore.PipelineLayoutID(a.newIDLocked())
	a.pipelineLayouts[id] = raw
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *Adapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	raw, ok := a.pipelineLayouts[id]
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyPipelineLayout(raw)
	}
}

// CreateComputePipeline creates a pipeline for one entry point.
func (a *Adapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: nil compute pipeline descriptor")
	}
	a.mu.Lock()
	layout, layoutOK := a.pipelineLayouts[desc.Layout]
	module, moduleOK := a.modules[desc.ShaderModule]
	a.mu.Unlock()
	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("wgpu: pipeline %q: layout %d: %w", desc.Label, desc.Layout, gpucore.ErrUnknownResource)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("wgpu: pipeline %q: shader module %d: %w", desc.Label, desc.ShaderModule, gpucore.ErrUnknownResource)
	}

	raw, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Compute: hal.ComputeState{Module: module, EntryPoint: desc.EntryPoint},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create compute pipeline %q: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := gpucore.ComputePipelineID(a.newIDLocked())
	a.pipelines[id] = raw
	logger.Get().Debug("wgpu: compute pipeline created", "label", desc.Label, "entry", desc.EntryPoint)
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *Adapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	raw, ok := a.pipelines[id]
	delete(a.pipelines, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyComputePipeline(raw)
	}
}

// CreateBindGroup binds buffer ranges to a layout. A zero entry size binds
// the rest of the buffer from the offset.
func (a *Adapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: nil bind group descriptor")
	}

	a.mu.Lock()
	layout, ok := a.layouts[desc.Layout]
	if !ok {
		a.mu.Unlock()
		return gpucore.InvalidID, fmt.Errorf("wgpu: bind group %q: layout %d: %w", desc.Label, desc.Layout, gpucore.ErrUnknownResource)
	}
	if len(desc.Entries) != len(layout.entries) {
		a.mu.Unlock()
		return gpucore.InvalidID, fmt.Errorf("wgpu: bind group %q: %d entries for a %d-entry layout: %w",
			desc.Label, len(desc.Entries), len(layout.entries), gpucore.ErrLayoutMismatch)
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		typ, ok := layout.entries[e.Binding]
		if !ok {
			a.mu.Unlock()
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group %q: binding %d: %w", desc.Label, e.Binding, gpucore.ErrLayoutMismatch)
		}
		buf, ok := a.buffers[e.Buffer]
		if !ok {
			a.mu.Unlock()
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group %q: buffer %d: %w", desc.Label, e.Buffer, gpucore.ErrUnknownResource)
		}
		size, err := bindingSize(typ, buf, e)
		if err != nil {
			a.mu.Unlock()
			return gpucore.InvalidID, fmt.Errorf("wgpu: bind group %q: binding %d: %w", desc.Label, e.Binding, err)
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding:  e.Binding,
			Resource: gputypes.BufferBinding{Buffer: buf.raw.NativeHandle(), Offset: e.Offset, Size: size},
		}
	}
	a.mu.Unlock()

	raw, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout.raw,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create bind group %q: %w", desc.Label, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	id := gpucore.BindGroupID(a.newIDLocked())
	a.bindGroups[id] = raw
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	raw, ok := a.bindGroups[id]
	delete(a.bindGroups, id)
	a.mu.Unlock()
	if ok {
		a.device.DestroyBindGroup(raw)
	}
}

// === Submission ===

// CreateCommandEncoder begins recording a command buffer.
func (a *Adapter) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	if err := a.alive(); err != nil {
		return nil, err
	}
	raw, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder %q: %w", label, err)
	}
	if err := raw.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding %q: %w", label, err)
	}
	return &commandEncoder{adapter: a, raw: raw, label: label}, nil
}

// Submit queues command buffers in order. Command buffers the fence has
// already passed are freed on the way; Submit does not wait.
func (a *Adapter) Submit(buffers ...gpucore.CommandBuffer) error {
	raws := make([]hal.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		cb, ok := b.(*commandBuffer)
		if !ok || cb.adapter != a {
			return fmt.Errorf("wgpu: submit: foreign command buffer %T", b)
		}
		if cb.submitted {
			return fmt.Errorf("wgpu: submit %q: %w", cb.label, ErrResubmitted)
		}
		raws = append(raws, cb.raw)
	}
	if err := a.submit(raws); err != nil {
		return err
	}
	for _, b := range buffers {
		b.(*commandBuffer).submitted = true
	}
	a.reclaim()
	return nil
}

func (a *Adapter) submit(raws []hal.CommandBuffer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.ErrAdapterDestroyed
	}
	value := a.fenceValue + 1
	if err := a.queue.Submit(raws, a.fence, value); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	a.fenceValue = value
	a.pending = append(a.pending, inflight{value: value, buffers: raws})
	return nil
}

// reclaim frees the command buffers of submissions the fence has passed,
// without blocking.
func (a *Adapter) reclaim() {
	a.mu.Lock()
	defer a.mu.Unlock()
	done := 0
	for _, p := range a.pending {
		ok, err := a.device.Wait(a.fence, p.value, 0)
		if err != nil || !ok {
			break
		}
		for _, cb := range p.buffers {
			a.device.FreeCommandBuffer(cb)
		}
		done++
	}
	a.pending = a.pending[done:]
}

// WaitIdle blocks until the fence reaches the last submitted value and
// frees every command buffer.
func (a *Adapter) WaitIdle() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.waitIdleLocked()
}

func (a *Adapter) waitIdleLocked() error {
	if a.fenceValue == 0 || a.fence == nil {
		return nil
	}
	ok, err := a.device.Wait(a.fence, a.fenceValue, fenceTimeout)
	if err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("wgpu: %w after %v", ErrTimeout, fenceTimeout)
	}
	for _, p := range a.pending {
		for _, cb := range p.buffers {
			a.device.FreeCommandBuffer(cb)
		}
	}
	a.pending = nil
	return nil
}

// Destroy waits for the device, releases every resource created through
// the adapter and, unless the device was wrapped, the device itself.
func (a *Adapter) Destroy() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return
	}
	if err := a.waitIdleLocked(); err != nil {
		logger.Get().Warn("wgpu: destroy with work in flight", "err", err)
	}
	a.destroyed = true

	d := a.device
	for _, bg := range a.bindGroups {
		d.DestroyBindGroup(bg)
	}
	for _, p := range a.pipelines {
		d.DestroyComputePipeline(p)
	}
	for _, pl := range a.pipelineLayouts {
		d.DestroyPipelineLayout(pl)
	}
	for _, l := range a.layouts {
		d.DestroyBindGroupLayout(l.raw)
	}
	for _, m := range a.modules {
		d.DestroyShaderModule(m)
	}
	for _, b := range a.buffers {
		d.DestroyBuffer(b.raw)
	}
	clear(a.bindGroups)
	clear(a.pipelines)
	clear(a.pipelineLayouts)
	clear(a.layouts)
	clear(a.modules)
	clear(a.buffers)

	if a.fence != nil {
		d.DestroyFence(a.fence)
		a.fence = nil
	}
	if !a.external {
		d.Destroy()
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.instance, a.device, a.queue = nil, nil, nil
	logger.Get().Debug("wgpu: adapter destroyed", "name", a.name)
}
