// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package backend selects the compute device a simulation runs on.
//
// Device implementations register a factory under a name from their init
// functions, so importing a backend package makes it available:
//
//	import (
//		_ "github.com/gogpu/heat/backend/software"
//		_ "github.com/gogpu/heat/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use Open to request a device by name, or Default to get the best
// available one:
//
//	// Best available device: a GPU if one can be opened, else software.
//	adapter, err := backend.Default()
//
//	// Or a specific device
//	adapter, err := backend.Open(backend.Software)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer adapter.Destroy()
//
// # Available Backends
//
// - "wgpu": Vulkan GPU through the gogpu/wgpu HAL
// - "software": CPU reference device running each kernel's host program
package backend
