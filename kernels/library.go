// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernels

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
)

// ErrLibraryClosed is returned when a kernel is built on a closed Library.
var ErrLibraryClosed = errors.New("kernels: library closed")

// compiledProgram holds the device objects of one program.
type compiledProgram struct {
	module          gpucore.ShaderModuleID
	bindGroupLayout gpucore.BindGroupLayoutID
	pipelineLayout  gpucore.PipelineLayoutID
	pipelines       map[string]gpucore.ComputePipelineID
}

// Library compiles every kernel program once for an adapter. Kernels built
// from it share its pipelines; the bind groups and parameter buffers they
// create are owned by the library and released by Close.
//
// Library is safe for concurrent use.
type Library struct {
	adapter gpucore.Adapter

	mu         sync.Mutex
	programs   [programCount]*compiledProgram
	bindGroups []gpucore.BindGroupID
	buffers    []gpucore.BufferID
	closed     bool
}

// NewLibrary builds the shader modules, layouts and pipelines of every
// program. On failure the objects created so far are destroyed.
func NewLibrary(a gpucore.Adapter) (*Library, error) {
	l := &Library{adapter: a}
	for p := range programCount {
		cp, err := l.compile(programs[p])
		if err != nil {
			l.Close()
			return nil, err
		}
		l.programs[p] = cp
	}
	logger.Get().Debug("kernels: library compiled", "programs", int(programCount))
	return l, nil
}

// Adapter returns the adapter the library was compiled for.
func (l *Library) Adapter() gpucore.Adapter { return l.adapter }

func (l *Library) compile(def programDef) (*compiledProgram, error) {
	a := l.adapter
	cp := &compiledProgram{pipelines: make(map[string]gpucore.ComputePipelineID, len(def.entries))}

	var err error
	cp.module, err = a.CreateShaderModule(&gpucore.ShaderModuleDesc{
		Label: def.label,
		WGSL:  def.source,
		Host:  def.host,
	})
	if err != nil {
		return nil, fmt.Errorf("kernels: %s shader module: %w", def.label, err)
	}

	cp.bindGroupLayout, err = a.CreateBindGroupLayout(&gpucore.BindGroupLayoutDesc{
		Label:   def.label,
		Entries: def.layout,
	})
	if err != nil {
		l.destroyProgram(cp)
		return nil, fmt.Errorf("kernels: %s bind group layout: %w", def.label, err)
	}

	cp.pipelineLayout, err = a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{cp.bindGroupLayout})
	if err != nil {
		l.destroyProgram(cp)
		return nil, fmt.Errorf("kernels: %s pipeline layout: %w", def.label, err)
	}

	for _, entry := range def.entries {
		pipe, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{
			Label:        def.label + "." + entry,
			Layout:       cp.pipelineLayout,
			ShaderModule: cp.module,
			EntryPoint:   entry,
		})
		if err != nil {
			l.destroyProgram(cp)
			return nil, fmt.Errorf("kernels: %s.%s pipeline: %w", def.label, entry, err)
		}
		cp.pipelines[entry] = pipe
	}
	return cp, nil
}

func (l *Library) destroyProgram(cp *compiledProgram) {
	a := l.adapter
	for _, pipe := range cp.pipelines {
		a.DestroyComputePipeline(pipe)
	}
	if cp.pipelineLayout != gpucore.InvalidID {
		a.DestroyPipelineLayout(cp.pipelineLayout)
	}
	if cp.bindGroupLayout != gpucore.InvalidID {
		a.DestroyBindGroupLayout(cp.bindGroupLayout)
	}
	if cp.module != gpucore.InvalidID {
		a.DestroyShaderModule(cp.module)
	}
}

// step binds buffers to a program and returns a step dispatching entry.
// buffers are assigned to bindings 0, 1, 2, ... in order.
func (l *Library) step(p program, entry, label string, grid gpucore.Workgroups, buffers ...gpucore.BufferID) (Step, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return Step{}, ErrLibraryClosed
	}

	cp := l.programs[p]
	pipe, ok := cp.pipelines[entry]
	if !ok {
		return Step{}, fmt.Errorf("kernels: %s has no entry point %q", programs[p].label, entry)
	}

	entries := make([]gpucore.BindGroupEntry, len(buffers))
	for i, buf := range buffers {
		entries[i] = gpucore.BindGroupEntry{Binding: uint32(i), Buffer: buf}
	}
	bg, err := l.adapter.CreateBindGroup(&gpucore.BindGroupDesc{
		Label:   label,
		Layout:  cp.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return Step{}, fmt.Errorf("kernels: %s bind group: %w", label, err)
	}
	l.bindGroups = append(l.bindGroups, bg)

	return Step{Label: label, Pipeline: pipe, BindGroup: bg, Workgroups: grid}, nil
}

// uniformBuffer creates a library-owned uniform buffer holding words.
func (l *Library) uniformBuffer(label string, words ...uint32) (gpucore.BufferID, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return gpucore.InvalidID, ErrLibraryClosed
	}

	data := gpucore.Uint32Bytes(words)
	id, err := l.adapter.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: uint64(len(data)), Usage: gpucore.UsageParams})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("kernels: %s: %w", label, err)
	}
	if err := l.adapter.WriteBuffer(id, 0, data); err != nil {
		l.adapter.DestroyBuffer(id)
		return gpucore.InvalidID, fmt.Errorf("kernels: %s: %w", label, err)
	}
	l.buffers = append(l.buffers, id)
	return id, nil
}

// Close releases every bind group, buffer and pipeline the library owns.
// Close is safe to call multiple times.
func (l *Library) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true

	for _, bg := range l.bindGroups {
		l.adapter.DestroyBindGroup(bg)
	}
	for _, buf := range l.buffers {
		l.adapter.DestroyBuffer(buf)
	}
	for i, cp := range l.programs {
		if cp != nil {
			l.destroyProgram(cp)
			l.programs[i] = nil
		}
	}
	l.bindGroups, l.buffers = nil, nil
}
