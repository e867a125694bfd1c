// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernels

import (
	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/sparse"
)

// SpMV computes y = A·x for a device-resident DIA matrix, one invocation
// per row in workgroups of 64.
type SpMV struct {
	step Step
}

// NewSpMV binds a matrix and two vectors of length A.Rows. x and y must be
// distinct buffers; the kernel holds non-owning references to all three.
func NewSpMV(lib *Library, a *sparse.Matrix, x, y gpucore.BufferID, label string) (*SpMV, error) {
	grid := gpucore.Linear(gpucore.WorkgroupCount(a.Rows, SpMVWorkgroupSize))
	step, err := lib.step(programSpMV, entryMain, label, grid, x, a.Params, a.Data, a.Offsets, y)
	if err != nil {
		return nil, err
	}
	return &SpMV{step: step}, nil
}

// Steps returns the single SpMV dispatch.
func (k *SpMV) Steps() []Step { return []Step{k.step} }
