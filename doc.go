// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package heat simulates 2D heat diffusion on a compute device.
//
// # Overview
//
// The field u on an N×N grid evolves by ∂u/∂t = α∇²u with zero values
// outside the grid. Each time step uses the Crank–Nicolson scheme
//
//	A·u′ = B·u,  A = I - γL,  B = I + γL,  γ = α·dt/(2h²),  h = 1/N
//
// where L is the 5-point Laplacian stored in diagonal (DIA) format.
// B·u is one sparse matrix-vector product; the implicit half is solved
// with a fixed number of Conjugate Gradient iterations. Everything stays
// on the device: a step is a single command buffer and nothing is read
// back until Read is called.
//
// # Quick Start
//
//	import (
//		"github.com/gogpu/heat"
//		"github.com/gogpu/heat/backend"
//		_ "github.com/gogpu/heat/backend/software"
//	)
//
//	dev, _ := backend.Default()
//	defer dev.Destroy()
//
//	sim, err := heat.New(dev, heat.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer sim.Close()
//
//	_ = sim.Seed(field) // N×N row-major values
//	_ = sim.Advance(100)
//	u, _ := sim.Read()
//
// # Architecture
//
// The library is organized into:
//   - Public API: Simulation, Config
//   - Device abstraction: gpucore, with backends in backend/wgpu and backend/software
//   - Numerics: sparse (DIA matrices), kernels (SpMV, dot product, vector updates), solver (CG)
//   - Double buffering: pingpong
//
// Two state buffers alternate as source and destination. Both step
// orientations are built at construction, so stepping only selects
// between them.
package heat
