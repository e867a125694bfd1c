// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpucore defines the compute device abstraction shared by the heat
// solver packages.
//
// The [Adapter] interface covers exactly what the solver consumes: typed
// buffers with usage flags, compute programs compiled from WGSL with a named
// entry point, bind groups matching a program's layout, and command encoders
// whose passes are submitted to one in-order queue.
//
//	     sparse / kernels / solver / heat
//	                  |
//	          +-------v-------+
//	          |    gpucore    |
//	          |   (Adapter)   |
//	          +-------+-------+
//	                  |
//	     +------------+------------+
//	     |                         |
//	+----v-----------+   +---------v--------+
//	|  backend/wgpu  |   | backend/software |
//	|  (hal.Device)  |   | (host programs)  |
//	+----------------+   +------------------+
//
// # Resource Management
//
// Resources are referenced through opaque IDs ([BufferID],
// [ComputePipelineID], ...). Adapters map IDs to backend objects and are
// responsible for releasing them in Destroy* calls.
//
// # Host Programs
//
// A [ShaderModuleDesc] may carry a [HostProgram] per entry point. The
// software adapter runs those programs one workgroup at a time instead of
// executing WGSL, which lets the whole kernel graph run deterministically
// on machines without a GPU.
package gpucore
