// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements gpucore.Adapter on a real GPU through the
// gogpu/wgpu hardware abstraction layer.
//
// Open brings up a Vulkan device of its own. New and FromProvider wrap a
// device that belongs to someone else, such as a gogpu window, and leave
// it alive on Destroy.
//
//	dev, err := wgpu.Open()
//	if err != nil {
//		// no GPU; fall back to backend/software
//	}
//	defer dev.Destroy()
//
// All submissions signal one fence with increasing values. Command
// buffers are freed once the fence has passed them, so Submit never
// waits. Every dispatch is recorded into its own HAL compute pass so that
// the storage writes of one dispatch are visible to the next.
//
// Building with the nogpu tag leaves only the error values and the "wgpu"
// backend unregistered.
package wgpu
