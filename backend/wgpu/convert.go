// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/heat/gpucore"
)

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage

	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}

	return result
}

// convertLayoutEntry converts a gpucore layout entry to a compute-visible
// gputypes buffer binding.
func convertLayoutEntry(entry gpucore.BindGroupLayoutEntry) (gputypes.BindGroupLayoutEntry, error) {
	result := gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: gputypes.ShaderStageCompute,
	}

	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	case gpucore.BindingTypeStorageBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}
	default:
		return result, fmt.Errorf("binding %d: type %v: %w", entry.Binding, entry.Type, gpucore.ErrLayoutMismatch)
	}

	return result, nil
}

// bindingSize resolves the bound range of a bind group entry and checks it
// against the buffer and the binding type.
func bindingSize(typ gpucore.BindingType, buf *buffer, e gpucore.BindGroupEntry) (uint64, error) {
	need := gpucore.BufferUsageStorage
	if typ == gpucore.BindingTypeUniformBuffer {
		need = gpucore.BufferUsageUniform
	}
	if !buf.usage.Contains(need) {
		return 0, fmt.Errorf("buffer %q bound as %v: %w", buf.label, typ, gpucore.ErrUsage)
	}
	if e.Offset > buf.size {
		return 0, fmt.Errorf("buffer %q: offset %d: %w", buf.label, e.Offset, gpucore.ErrOutOfRange)
	}
	size := e.Size
	if size == 0 {
		size = buf.size - e.Offset
	}
	if size == 0 || e.Offset+size > buf.size {
		return 0, fmt.Errorf("buffer %q: range %d+%d: %w", buf.label, e.Offset, size, gpucore.ErrOutOfRange)
	}
	return size, nil
}
