// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package backend

import (
	"errors"

	"github.com/gogpu/heat/gpucore"
)

// Backend names.
const (
	// WGPU is the GPU backend built on gogpu/wgpu.
	WGPU = "wgpu"

	// Software is the CPU reference backend.
	Software = "software"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends could be opened.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory opens a new device.
type Factory func() (gpucore.Adapter, error)
