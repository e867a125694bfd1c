// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

// Adapter abstracts over the compute devices the solver can run on.
//
// The solver only consumes these primitives. Implementations live in
// backend/wgpu (a real GPU through the gogpu/wgpu HAL) and backend/software
// (a CPU reference device that runs each program's host implementation).
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource that pending work still uses is undefined behavior
//   - IDs become invalid after destruction and are never reused
//
// Ordering: WriteBuffer, copies and dispatches take effect in the order they
// were issued or submitted. Submit never waits for the device; ReadBuffer and
// WaitIdle are the only calls that block on completion.
type Adapter interface {
	// Capabilities returns the adapter limits.
	Capabilities() Capabilities

	// CreateBuffer allocates a device buffer. The contents are zeroed.
	CreateBuffer(desc *BufferDesc) (BufferID, error)

	// DestroyBuffer releases a buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer uploads data at a byte offset. The write is ordered after
	// all previously submitted work and before all later submissions.
	WriteBuffer(id BufferID, offset uint64, data []byte) error

	// ReadBuffer waits for all submitted work and returns size bytes of
	// the buffer starting at offset.
	ReadBuffer(id BufferID, offset, size uint64) ([]byte, error)

	// CreateShaderModule compiles a compute program from WGSL source.
	CreateShaderModule(desc *ShaderModuleDesc) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts into a pipeline layout.
	CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline for one entry point.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// CreateBindGroup binds buffers to a layout.
	CreateBindGroup(desc *BindGroupDesc) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// CreateCommandEncoder starts recording a command buffer.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit queues finished command buffers in order and returns without
	// waiting for them to execute.
	Submit(buffers ...CommandBuffer) error

	// WaitIdle blocks until all submitted work has completed. It reports
	// the first execution error since the previous WaitIdle, if any.
	WaitIdle() error

	// Destroy releases the device. The adapter must not be used afterwards.
	Destroy()
}

// CommandEncoder records compute passes and copies into a command buffer.
// An encoder is used by a single goroutine.
type CommandEncoder interface {
	// BeginComputePass begins a compute pass. The pass must be ended
	// before the encoder records anything else.
	BeginComputePass(label string) ComputePassEncoder

	// CopyBufferToBuffer records a copy of size bytes.
	CopyBufferToBuffer(src BufferID, srcOffset uint64, dst BufferID, dstOffset uint64, size uint64)

	// Finish ends recording. Errors recorded by the encoder (invalid IDs,
	// unbalanced passes) are returned here.
	Finish() (CommandBuffer, error)
}

// ComputePassEncoder records commands for a compute pass.
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the given index.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch dispatches compute work.
	// x, y, z are the number of workgroups in each dimension.
	Dispatch(x, y, z uint32)

	// End ends the compute pass.
	End()
}

// CommandBuffer is a finished, submittable recording. It is submitted at
// most once, to the adapter that created its encoder.
type CommandBuffer interface {
	// Label returns the debug label of the encoder that produced it.
	Label() string
}
