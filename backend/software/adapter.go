// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"sync"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
	"github.com/gogpu/heat/internal/parallel"
)

// Limits reported by the software device.
const (
	maxBufferSize          = 1 << 30
	maxWorkgroupsPerDim    = 65535
	maxInvocationsPerGroup = 256
	adapterName            = "software reference device"
)

type buffer struct {
	label string
	usage gpucore.BufferUsage
	words []uint32
}

type module struct {
	label string
	host  map[string]gpucore.HostProgram
}

type bindGroupLayout struct {
	label   string
	entries map[uint32]gpucore.BindingType
}

type pipelineLayout struct {
	groups []gpucore.BindGroupLayoutID
}

type pipeline struct {
	label   string
	layout  *pipelineLayout
	program gpucore.HostProgram
}

type bindGroupEntry struct {
	binding uint32
	buffer  gpucore.BufferID
	first   uint64
	count   uint64
}

type bindGroup struct {
	label   string
	layout  gpucore.BindGroupLayoutID
	entries []bindGroupEntry
}

// Adapter is a gpucore.Adapter that executes on the CPU.
//
// Buffers are arrays of 32-bit words. Submitted work is applied by a single
// executor goroutine in submission order and Submit never blocks on it.
// A dispatch runs its workgroups on a worker pool through the host program
// registered for the pipeline's entry point.
type Adapter struct {
	mu        sync.Mutex
	nextID    uint64
	destroyed bool

	buffers         map[gpucore.BufferID]*buffer
	modules         map[gpucore.ShaderModuleID]*module
	layouts         map[gpucore.BindGroupLayoutID]*bindGroupLayout
	pipelineLayouts map[gpucore.PipelineLayoutID]*pipelineLayout
	pipelines       map[gpucore.ComputePipelineID]*pipeline
	groups          map[gpucore.BindGroupID]*bindGroup

	queue *executor
	pool  *parallel.WorkerPool
}

var _ gpucore.Adapter = (*Adapter)(nil)

// New creates a software adapter that uses GOMAXPROCS workers.
func New() *Adapter {
	return NewWithWorkers(0)
}

// NewWithWorkers creates a software adapter with the given number of
// dispatch workers. Zero or negative means GOMAXPROCS.
func NewWithWorkers(workers int) *Adapter {
	a := &Adapter{
		buffers:         make(map[gpucore.BufferID]*buffer),
		modules:         make(map[gpucore.ShaderModuleID]*module),
		layouts:         make(map[gpucore.BindGroupLayoutID]*bindGroupLayout),
		pipelineLayouts: make(map[gpucore.PipelineLayoutID]*pipelineLayout),
		pipelines:       make(map[gpucore.ComputePipelineID]*pipeline),
		groups:          make(map[gpucore.BindGroupID]*bindGroup),
		pool:            parallel.NewWorkerPool(workers),
	}
	a.queue = newExecutor()
	logger.Get().Info("software: device created", "workers", a.pool.Workers())
	return a
}

// Capabilities returns the software device limits.
func (a *Adapter) Capabilities() gpucore.Capabilities {
	return gpucore.Capabilities{
		Name:                              adapterName,
		MaxBufferSize:                     maxBufferSize,
		MaxComputeWorkgroupsPerDimension:  maxWorkgroupsPerDim,
		MaxComputeInvocationsPerWorkgroup: maxInvocationsPerGroup,
	}
}

// id allocates the next resource ID. Callers must hold a.mu.
func (a *Adapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// CreateBuffer allocates a zeroed buffer.
func (a *Adapter) CreateBuffer(desc *gpucore.BufferDesc) (gpucore.BufferID, error) {
	if err := gpucore.ValidateBufferDesc(desc); err != nil {
		return gpucore.InvalidID, fmt.Errorf("software: create buffer: %w", err)
	}
	if desc.Size > maxBufferSize {
		return gpucore.InvalidID, fmt.Errorf("software: create buffer %q of %d bytes: %w", desc.Label, desc.Size, gpucore.ErrOutOfRange)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	id := gpucore.BufferID(a.id())
	a.buffers[id] = &buffer{
		label: desc.Label,
		usage: desc.Usage,
		words: make([]uint32, desc.Size/4),
	}
	logger.Get().Debug("software: buffer created", "label", desc.Label, "size", desc.Size, "usage", desc.Usage)
	return id, nil
}

// DestroyBuffer releases a buffer once previously submitted work no longer
// needs it.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.queue.push(func() error {
		a.mu.Lock()
		delete(a.buffers, id)
		a.mu.Unlock()
		return nil
	})
}

// WriteBuffer copies data and queues the write behind submitted work.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if offset%4 != 0 || len(data)%4 != 0 {
		return fmt.Errorf("software: write buffer: offset %d size %d not word aligned: %w", offset, len(data), gpucore.ErrOutOfRange)
	}
	a.mu.Lock()
	buf, err := a.bufferLocked(id)
	a.mu.Unlock()
	if err != nil {
		return fmt.Errorf("software: write buffer: %w", err)
	}
	if !buf.usage.Contains(gpucore.BufferUsageCopyDst) {
		return fmt.Errorf("software: write buffer %q: %w", buf.label, gpucore.ErrUsage)
	}
	if offset+uint64(len(data)) > uint64(len(buf.words))*4 {
		return fmt.Errorf("software: write buffer %q: %w", buf.label, gpucore.ErrOutOfRange)
	}

	words, err := gpucore.BytesUint32(data)
	if err != nil {
		return err
	}
	a.queue.push(func() error {
		copy(buf.words[offset/4:], words)
		return nil
	})
	return nil
}

// ReadBuffer waits for submitted work and returns a copy of the range.
func (a *Adapter) ReadBuffer(id gpucore.BufferID, offset, size uint64) ([]byte, error) {
	if offset%4 != 0 || size%4 != 0 {
		return nil, fmt.Errorf("software: read buffer: offset %d size %d not word aligned: %w", offset, size, gpucore.ErrOutOfRange)
	}
	a.mu.Lock()
	buf, err := a.bufferLocked(id)
	a.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("software: read buffer: %w", err)
	}
	if !buf.usage.Contains(gpucore.BufferUsageCopySrc) {
		return nil, fmt.Errorf("software: read buffer %q: %w", buf.label, gpucore.ErrUsage)
	}
	if offset+size > uint64(len(buf.words))*4 {
		return nil, fmt.Errorf("software: read buffer %q: %w", buf.label, gpucore.ErrOutOfRange)
	}

	var out []byte
	a.queue.push(func() error {
		out = gpucore.Uint32Bytes(buf.words[offset/4 : (offset+size)/4])
		return nil
	})
	if err := a.WaitIdle(); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateShaderModule registers a program. The WGSL source is kept only as
// metadata; execution uses desc.Host.
func (a *Adapter) CreateShaderModule(desc *gpucore.ShaderModuleDesc) (gpucore.ShaderModuleID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("software: create shader module: nil descriptor")
	}
	host := make(map[string]gpucore.HostProgram, len(desc.Host))
	for name, prog := range desc.Host {
		host[name] = prog
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	id := gpucore.ShaderModuleID(a.id())
	a.modules[id] = &module{label: desc.Label, host: host}
	logger.Get().Debug("software: shader module created", "label", desc.Label, "entries", len(host))
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *Adapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	delete(a.modules, id)
	a.mu.Unlock()
}

// CreateBindGroupLayout creates a bind group layout.
func (a *Adapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("software: create bind group layout: nil descriptor")
	}
	entries := make(map[uint32]gpucore.BindingType, len(desc.Entries))
	for _, e := range desc.Entries {
		if _, dup := entries[e.Binding]; dup {
			return gpucore.InvalidID, fmt.Errorf("software: bind group layout %q: duplicate binding %d", desc.Label, e.Binding)
		}
		entries[e.Binding] = e.Type
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	id := gpucore.BindGroupLayoutID(a.id())
	a.layouts[id] = &bindGroupLayout{label: desc.Label, entries: entries}
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *Adapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	delete(a.layouts, id)
	a.mu.Unlock()
}

// CreatePipelineLayout creates a pipeline layout.
func (a *Adapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	for _, l := range layouts {
		if _, ok := a.layouts[l]; !ok {
			return gpucore.InvalidID, fmt.Errorf("software: pipeline layout: bind group layout %d: %w", l, gpucore.ErrUnknownResource)
		}
	}
	id := gpucore.PipelineLayoutID(a.id())
	a.pipelineLayouts[id] = &pipelineLayout{groups: append([]gpucore.BindGroupLayoutID(nil), layouts...)}
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *Adapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()
}

// CreateComputePipeline resolves the entry point to the module's host
// program. A module without one for the entry point is an error.
func (a *Adapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("software: create compute pipeline: nil descriptor")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	mod, ok := a.modules[desc.ShaderModule]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: shader module: %w", desc.Label, gpucore.ErrUnknownResource)
	}
	layout, ok := a.pipelineLayouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: layout: %w", desc.Label, gpucore.ErrUnknownResource)
	}
	if len(layout.groups) > 1 {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: %d bind groups: %w", desc.Label, len(layout.groups), ErrUnsupported)
	}
	prog, ok := mod.host[desc.EntryPoint]
	if !ok || prog == nil {
		return gpucore.InvalidID, fmt.Errorf("software: pipeline %q: module %q entry point %q: %w",
			desc.Label, mod.label, desc.EntryPoint, ErrNoHostProgram)
	}

	id := gpucore.ComputePipelineID(a.id())
	a.pipelines[id] = &pipeline{label: desc.Label, layout: layout, program: prog}
	logger.Get().Debug("software: compute pipeline created", "label", desc.Label, "entry", desc.EntryPoint)
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *Adapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	delete(a.pipelines, id)
	a.mu.Unlock()
}

// CreateBindGroup validates every entry against the layout and the bound
// buffer's usage.
func (a *Adapter) CreateBindGroup(desc *gpucore.BindGroupDesc) (gpucore.BindGroupID, error) {
	if desc == nil {
		return gpucore.InvalidID, fmt.Errorf("software: create bind group: nil descriptor")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return gpucore.InvalidID, gpucore.ErrAdapterDestroyed
	}
	layout, ok := a.layouts[desc.Layout]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("software: bind group %q: layout: %w", desc.Label, gpucore.ErrUnknownResource)
	}
	if len(desc.Entries) != len(layout.entries) {
		return gpucore.InvalidID, fmt.Errorf("software: bind group %q: %d entries for %d layout bindings: %w",
			desc.Label, len(desc.Entries), len(layout.entries), gpucore.ErrLayoutMismatch)
	}

	entries := make([]bindGroupEntry, 0, len(desc.Entries))
	for _, e := range desc.Entries {
		typ, ok := layout.entries[e.Binding]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: %w", desc.Label, e.Binding, gpucore.ErrLayoutMismatch)
		}
		buf, err := a.bufferLocked(e.Buffer)
		if err != nil {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: %w", desc.Label, e.Binding, err)
		}
		need := gpucore.BufferUsageStorage
		if typ == gpucore.BindingTypeUniformBuffer {
			need = gpucore.BufferUsageUniform
		}
		if !buf.usage.Contains(need) {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d (%s) buffer %q: %w",
				desc.Label, e.Binding, typ, buf.label, gpucore.ErrUsage)
		}

		total := uint64(len(buf.words)) * 4
		size := e.Size
		if size == 0 {
			if e.Offset > total {
				return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: %w", desc.Label, e.Binding, gpucore.ErrOutOfRange)
			}
			size = total - e.Offset
		}
		if e.Offset%4 != 0 || size%4 != 0 || e.Offset+size > total {
			return gpucore.InvalidID, fmt.Errorf("software: bind group %q: binding %d: %w", desc.Label, e.Binding, gpucore.ErrOutOfRange)
		}
		entries = append(entries, bindGroupEntry{
			binding: e.Binding,
			buffer:  e.Buffer,
			first:   e.Offset / 4,
			count:   size / 4,
		})
	}

	id := gpucore.BindGroupID(a.id())
	a.groups[id] = &bindGroup{label: desc.Label, layout: desc.Layout, entries: entries}
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	delete(a.groups, id)
	a.mu.Unlock()
}

// CreateCommandEncoder starts a recording.
func (a *Adapter) CreateCommandEncoder(label string) (gpucore.CommandEncoder, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed {
		return nil, gpucore.ErrAdapterDestroyed
	}
	return &commandEncoder{adapter: a, label: label}, nil
}

// Submit queues command buffers for the executor and returns.
func (a *Adapter) Submit(buffers ...gpucore.CommandBuffer) error {
	a.mu.Lock()
	destroyed := a.destroyed
	a.mu.Unlock()
	if destroyed {
		return gpucore.ErrAdapterDestroyed
	}

	for _, cb := range buffers {
		c, ok := cb.(*commandBuffer)
		if !ok || c.adapter != a {
			return fmt.Errorf("software: submit: command buffer not created by this adapter")
		}
		if c.submitted {
			return fmt.Errorf("software: submit %q: %w", c.label, ErrResubmitted)
		}
		c.submitted = true
	}
	for _, cb := range buffers {
		c := cb.(*commandBuffer)
		a.queue.push(func() error { return a.execute(c) })
	}
	return nil
}

// WaitIdle blocks until the executor has drained and reports the first
// execution error since the previous call.
func (a *Adapter) WaitIdle() error {
	if err := a.queue.wait(); err != nil {
		return fmt.Errorf("software: %w", err)
	}
	return nil
}

// Destroy drains outstanding work and releases every resource.
func (a *Adapter) Destroy() {
	a.mu.Lock()
	if a.destroyed {
		a.mu.Unlock()
		return
	}
	a.destroyed = true
	a.mu.Unlock()

	if err := a.queue.wait(); err != nil {
		logger.Get().Warn("software: pending work failed during destroy", "err", err)
	}
	a.queue.close()
	a.pool.Close()

	a.mu.Lock()
	clear(a.buffers)
	clear(a.modules)
	clear(a.layouts)
	clear(a.pipelineLayouts)
	clear(a.pipelines)
	clear(a.groups)
	a.mu.Unlock()
}

// bufferLocked looks up a live buffer. Callers must hold a.mu.
func (a *Adapter) bufferLocked(id gpucore.BufferID) (*buffer, error) {
	buf, ok := a.buffers[id]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w", id, gpucore.ErrUnknownResource)
	}
	return buf, nil
}
