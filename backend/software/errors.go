// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import "errors"

// Errors specific to the software device.
var (
	// ErrNoHostProgram is returned when a pipeline names an entry point
	// the shader module has no host program for.
	ErrNoHostProgram = errors.New("software: entry point has no host program")

	// ErrUnsupported is returned for configurations the software device
	// does not model, such as more than one bind group per pipeline.
	ErrUnsupported = errors.New("software: unsupported configuration")

	// ErrPassOpen is returned when an encoder records outside the open
	// compute pass or finishes with a pass still open.
	ErrPassOpen = errors.New("software: compute pass still open")

	// ErrMissingPipeline is reported for a dispatch recorded before
	// SetPipeline.
	ErrMissingPipeline = errors.New("software: dispatch without pipeline")

	// ErrMissingBindGroup is reported for a dispatch with no bind group at
	// an index the pipeline layout declares.
	ErrMissingBindGroup = errors.New("software: dispatch without bind group")

	// ErrTooManyWorkgroups is reported for a dispatch dimension above the
	// device limit.
	ErrTooManyWorkgroups = errors.New("software: workgroup count exceeds limit")

	// ErrResubmitted is returned when a command buffer is submitted twice.
	ErrResubmitted = errors.New("software: command buffer already submitted")

	// ErrEncoderFinished is returned when an encoder is used after Finish.
	ErrEncoderFinished = errors.New("software: encoder already finished")
)
