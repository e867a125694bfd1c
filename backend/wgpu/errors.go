// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

// Errors specific to the HAL device.
var (
	// ErrNoBackend is returned when the Vulkan HAL backend is not compiled in.
	ErrNoBackend = errors.New("wgpu: vulkan backend not available")

	// ErrNoAdapter is returned when no GPU adapter is found.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

	// ErrNilDevice is returned when wrapping a nil device or queue.
	ErrNilDevice = errors.New("wgpu: nil device or queue")

	// ErrNoHALProvider is returned by FromProvider when the provider does
	// not expose HAL handles.
	ErrNoHALProvider = errors.New("wgpu: provider does not expose HAL types")

	// ErrTimeout is returned when the device does not reach a fence value
	// in time.
	ErrTimeout = errors.New("wgpu: GPU timeout")

	// ErrResubmitted is returned when a command buffer is submitted twice.
	ErrResubmitted = errors.New("wgpu: command buffer already submitted")

	// ErrPassOpen is returned when an encoder records outside the open
	// compute pass or finishes with a pass still open.
	ErrPassOpen = errors.New("wgpu: compute pass still open")

	// ErrEncoderFinished is returned when an encoder is used after Finish.
	ErrEncoderFinished = errors.New("wgpu: encoder already finished")
)
