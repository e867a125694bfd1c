// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package solver implements the Conjugate Gradient method on device
// buffers.
//
// A CG is assembled once from kernels of a shared kernels.Library and a
// Scratch arena, then recorded into command buffers as often as needed:
//
//	scratch, _ := solver.NewScratch(adapter, n, "cg")
//	cg, _ := solver.New(lib, A, b, x, scratch, solver.WithMaxSteps(200))
//	_ = cg.Solve() // returns after submission
//
// The iteration count is fixed. There is no residual test and no early
// exit, so a solve never reads anything back to the host. Choose the
// budget for the system at hand; at least n iterations are needed for an
// n×n system to converge in exact arithmetic.
//
// Several CG instances may share one Scratch as long as their solves are
// recorded one after another on the same queue.
package solver
