// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package kernels provides the compute kernels of the conjugate gradient
// solver: sparse matrix-vector multiply, dot product by parallel
// reduction, and vector updates.
//
// Every kernel reduces to a fixed list of [Step] values (pipeline, bind
// group, workgroup grid) built once at construction. Solvers flatten the
// kernels they chain into a [Sequence] and encode that sequence into a
// compute pass each time they run, so nothing is rebuilt on the hot path.
//
// All programs are compiled once per adapter by a [Library]:
//
//	lib, err := kernels.NewLibrary(adapter)
//	if err != nil {
//		return err
//	}
//	defer lib.Close()
//
//	spmv, err := kernels.NewSpMV(lib, matrix, x, y, "A*x")
//	dot, err := kernels.NewDot(lib, n, r, r, tmp0, tmp1, sigma, "r.r")
//	seq := kernels.NewSequence(spmv, dot)
//
// Each program also carries a host implementation so the software device
// can execute the same sequence deterministically.
package kernels
