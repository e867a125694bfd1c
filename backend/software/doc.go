// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software provides a CPU implementation of gpucore.Adapter.
//
// The device executes no WGSL. Every shader module carries a Go host
// program per entry point (see gpucore.HostProgram) and a dispatch runs
// that program once per workgroup. Results therefore match the GPU
// kernels bit for bit only as far as the host programs reproduce the
// shaders' accumulation order, which the kernels package does.
//
// The package registers itself with the backend registry as "software".
package software

import (
	"github.com/gogpu/heat/backend"
	"github.com/gogpu/heat/gpucore"
)

func init() {
	backend.Register(backend.Software, func() (gpucore.Adapter, error) {
		return New(), nil
	})
}
