// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package sparse builds diagonal-format (DIA) sparse matrices and uploads
// them to a compute device.
//
// A [DIA] is the host form: a list of diagonal offsets and, for each
// diagonal, one value per row. [Stencil5] and [HeatOperators] produce the
// 5-point stencil operators of a row-major n×n grid. [Upload] turns a DIA
// into a device-resident [Matrix] whose buffers the SpMV kernel binds.
package sparse
