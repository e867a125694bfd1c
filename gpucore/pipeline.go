// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import (
	"fmt"
	"unsafe"
)

// ShaderModuleDesc describes a compute program.
type ShaderModuleDesc struct {
	// Label is an optional debug label.
	Label string

	// WGSL is the program source.
	WGSL string

	// Host holds a Go implementation of each entry point, keyed by entry
	// point name. Devices that execute WGSL ignore it; the software device
	// requires it.
	Host map[string]HostProgram
}

// ComputePipelineDesc describes a compute pipeline.
type ComputePipelineDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the pipeline layout.
	Layout PipelineLayoutID

	// ShaderModule is the compute shader module.
	ShaderModule ShaderModuleID

	// EntryPoint is the shader entry point function name.
	EntryPoint string
}

// HostProgram executes one workgroup of an entry point on the host.
//
// A host program must produce the same results as its WGSL counterpart,
// including the order in which floating-point values are accumulated.
// Workgroups of one dispatch may run concurrently, so a program writes
// only the output elements its workgroup owns.
type HostProgram func(group Group, b *Bindings)

// Group identifies the workgroup a HostProgram is executing.
type Group struct {
	// ID is the workgroup_id builtin.
	ID [3]uint32

	// Count is the num_workgroups builtin.
	Count Workgroups
}

// Bindings gives a host program access to the buffers in its bind group,
// by binding index, as 32-bit word views.
type Bindings struct {
	words [][]uint32
}

// NewBindings returns an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{}
}

// Set installs the word view for a binding index.
func (b *Bindings) Set(binding uint32, words []uint32) {
	for uint32(len(b.words)) <= binding {
		b.words = append(b.words, nil)
	}
	b.words[binding] = words
}

// U32 returns the binding as a []uint32 view.
func (b *Bindings) U32(binding uint32) []uint32 {
	if int(binding) >= len(b.words) || b.words[binding] == nil {
		panic(fmt.Sprintf("gpucore: binding %d is not bound", binding))
	}
	return b.words[binding]
}

// F32 returns the binding as a []float32 view sharing the same memory.
func (b *Bindings) F32(binding uint32) []float32 {
	w := b.U32(binding)
	if len(w) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&w[0])), len(w))
}

// I32 returns the binding as a []int32 view sharing the same memory.
func (b *Bindings) I32(binding uint32) []int32 {
	w := b.U32(binding)
	if len(w) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&w[0])), len(w))
}
