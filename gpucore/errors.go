// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucore

import "errors"

// Errors shared by adapter implementations.
var (
	// ErrInvalidBuffer is returned when a buffer descriptor has a zero or
	// unaligned size or no usage flags.
	ErrInvalidBuffer = errors.New("gpucore: invalid buffer descriptor")

	// ErrUnknownResource is returned when an ID does not name a live resource.
	ErrUnknownResource = errors.New("gpucore: unknown resource")

	// ErrUsage is returned when a buffer is used in a way its usage flags
	// do not permit.
	ErrUsage = errors.New("gpucore: buffer usage does not permit operation")

	// ErrOutOfRange is returned when an offset or size exceeds a buffer.
	ErrOutOfRange = errors.New("gpucore: range exceeds buffer")

	// ErrLayoutMismatch is returned when a bind group does not match the
	// layout its pipeline expects.
	ErrLayoutMismatch = errors.New("gpucore: bind group layout mismatch")

	// ErrAdapterDestroyed is returned by every call after Destroy.
	ErrAdapterDestroyed = errors.New("gpucore: adapter destroyed")
)

// ValidateBufferDesc checks the descriptor rules every adapter enforces.
func ValidateBufferDesc(desc *BufferDesc) error {
	switch {
	case desc == nil:
		return ErrInvalidBuffer
	case desc.Size == 0 || desc.Size%4 != 0:
		return ErrInvalidBuffer
	case desc.Usage == 0:
		return ErrInvalidBuffer
	}
	return nil
}
