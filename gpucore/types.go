// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "fmt"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each adapter implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// ShaderModuleID is an opaque handle to a compiled shader module.
type ShaderModuleID uint64

// ComputePipelineID is an opaque handle to a compute pipeline.
type ComputePipelineID uint64

// BindGroupLayoutID is an opaque handle to a bind group layout.
type BindGroupLayoutID uint64

// BindGroupID is an opaque handle to a bind group.
type BindGroupID uint64

// PipelineLayoutID is an opaque handle to a pipeline layout.
type PipelineLayoutID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	// BufferUsageMapRead indicates the buffer can be mapped for reading.
	BufferUsageMapRead BufferUsage = 1 << 0

	// BufferUsageMapWrite indicates the buffer can be mapped for writing.
	BufferUsageMapWrite BufferUsage = 1 << 1

	// BufferUsageCopySrc indicates the buffer can be used as a copy source.
	BufferUsageCopySrc BufferUsage = 1 << 2

	// BufferUsageCopyDst indicates the buffer can be used as a copy destination.
	BufferUsageCopyDst BufferUsage = 1 << 3

	// BufferUsageUniform indicates the buffer can be used as a uniform buffer.
	BufferUsageUniform BufferUsage = 1 << 6

	// BufferUsageStorage indicates the buffer can be used as a storage buffer.
	BufferUsageStorage BufferUsage = 1 << 7
)

// Common usage combinations for solver buffers.
const (
	// UsageVector is the usage of every vector the kernels read and write:
	// bindable as storage, uploadable, and copyable in both directions.
	UsageVector = BufferUsageStorage | BufferUsageCopySrc | BufferUsageCopyDst

	// UsageParams is the usage of small uniform parameter blocks.
	UsageParams = BufferUsageUniform | BufferUsageCopyDst
)

// Contains reports whether all flags in other are set in u.
func (u BufferUsage) Contains(other BufferUsage) bool {
	return u&other == other
}

// String returns a "|"-separated list of the set flags.
func (u BufferUsage) String() string {
	if u == 0 {
		return "None"
	}
	names := []struct {
		flag BufferUsage
		name string
	}{
		{BufferUsageMapRead, "MapRead"},
		{BufferUsageMapWrite, "MapWrite"},
		{BufferUsageCopySrc, "CopySrc"},
		{BufferUsageCopyDst, "CopyDst"},
		{BufferUsageUniform, "Uniform"},
		{BufferUsageStorage, "Storage"},
	}
	s := ""
	rest := u
	for _, n := range names {
		if u&n.flag != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
			rest &^= n.flag
		}
	}
	if rest != 0 {
		if s != "" {
			s += "|"
		}
		s += fmt.Sprintf("0x%x", uint32(rest))
	}
	return s
}

// BufferDesc describes a buffer to create.
type BufferDesc struct {
	// Label is an optional debug label.
	Label string

	// Size is the buffer size in bytes. It must be a positive multiple of 4.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage BufferUsage
}

// BindingType specifies the type of a shader binding.
type BindingType uint32

// Binding types.
const (
	// BindingTypeUniformBuffer is a uniform buffer binding.
	BindingTypeUniformBuffer BindingType = iota + 1

	// BindingTypeStorageBuffer is a storage buffer binding (read-write).
	BindingTypeStorageBuffer

	// BindingTypeReadOnlyStorageBuffer is a read-only storage buffer binding.
	BindingTypeReadOnlyStorageBuffer
)

// String returns the WGSL-style name of the binding type.
func (t BindingType) String() string {
	switch t {
	case BindingTypeUniformBuffer:
		return "uniform"
	case BindingTypeStorageBuffer:
		return "storage(read_write)"
	case BindingTypeReadOnlyStorageBuffer:
		return "storage(read)"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Writable reports whether a shader may write through a binding of this type.
func (t BindingType) Writable() bool {
	return t == BindingTypeStorageBuffer
}

// BindGroupLayoutDesc describes a bind group layout.
type BindGroupLayoutDesc struct {
	// Label is an optional debug label.
	Label string

	// Entries defines the bindings in this layout.
	Entries []BindGroupLayoutEntry
}

// BindGroupLayoutEntry describes a single binding in a bind group layout.
type BindGroupLayoutEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Type is the type of resource bound at this index.
	Type BindingType
}

// BindGroupEntry describes a single binding in a bind group.
type BindGroupEntry struct {
	// Binding is the binding index.
	Binding uint32

	// Buffer is the buffer to bind.
	Buffer BufferID

	// Offset is the offset into the buffer.
	Offset uint64

	// Size is the size of the buffer range to bind.
	// Use 0 to bind the entire buffer from offset.
	Size uint64
}

// BindGroupDesc describes a bind group.
type BindGroupDesc struct {
	// Label is an optional debug label.
	Label string

	// Layout is the bind group layout.
	Layout BindGroupLayoutID

	// Entries are the resource bindings.
	Entries []BindGroupEntry
}

// Workgroups is a dispatch grid size in workgroups along x, y and z.
type Workgroups [3]uint32

// Linear returns a one-dimensional grid of x workgroups.
func Linear(x uint32) Workgroups {
	return Workgroups{x, 1, 1}
}

// Total returns the number of workgroups in the grid.
func (w Workgroups) Total() uint64 {
	return uint64(w[0]) * uint64(w[1]) * uint64(w[2])
}

// WorkgroupCount returns the number of workgroups of size wgSize needed to
// cover n elements:
//
//	workgroups = (n + wgSize - 1) / wgSize
func WorkgroupCount(n, wgSize uint32) uint32 {
	if n == 0 || wgSize == 0 {
		return 0
	}
	return (n + wgSize - 1) / wgSize
}

// Capabilities describes the limits of an adapter.
type Capabilities struct {
	// Name is a human-readable adapter name.
	Name string

	// MaxBufferSize is the maximum buffer size in bytes.
	MaxBufferSize uint64

	// MaxComputeWorkgroupsPerDimension is the maximum workgroups per dispatch dimension.
	MaxComputeWorkgroupsPerDimension uint32

	// MaxComputeInvocationsPerWorkgroup is the maximum total invocations per workgroup.
	MaxComputeInvocationsPerWorkgroup uint32
}
