// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernels

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
)

// Dot computes out[0] = x·y in three dispatches: an elementwise multiply
// into tmp0, a per-block tree reduction of tmp0 into tmp1, and a single
// workgroup summing the partial sums of tmp1.
//
// Accumulation is single precision with no compensation, so round-off
// grows with the number of blocks.
type Dot struct {
	n      uint32
	groups uint32
	steps  [3]Step
}

// PartialSums returns the number of block partial sums for n elements, the
// minimum length of the tmp1 scratch vector.
func PartialSums(n uint32) uint32 {
	return gpucore.WorkgroupCount(n, ReduceWorkgroupSize)
}

// NewDot binds the vectors of a length-n dot product. tmp0 must hold at
// least n elements, tmp1 at least PartialSums(n) and out at least one.
// x and y may be the same buffer to compute a squared norm.
func NewDot(lib *Library, n uint32, x, y, tmp0, tmp1, out gpucore.BufferID, label string) (*Dot, error) {
	if n == 0 {
		return nil, fmt.Errorf("kernels: %s: empty dot product", label)
	}
	groups := PartialSums(n)
	params, err := lib.uniformBuffer(label+" params", n, groups, 0, 0)
	if err != nil {
		return nil, err
	}

	d := &Dot{n: n, groups: groups}
	stages := [3]struct {
		entry string
		grid  gpucore.Workgroups
	}{
		{entryVecMul, gpucore.Linear(groups)},
		{entryBlockSum, gpucore.Linear(groups)},
		{entryFinalSum, gpucore.Linear(1)},
	}
	for i, s := range stages {
		d.steps[i], err = lib.step(programDot, s.entry, label+" "+s.entry, s.grid, params, x, y, tmp0, tmp1, out)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Groups returns the partial-sum count, which is also the final stage's
// loop bound.
func (d *Dot) Groups() uint32 { return d.groups }

// Steps returns the multiply, block-sum and final-sum dispatches.
func (d *Dot) Steps() []Step { return d.steps[:] }

// Multiply returns only the elementwise multiply stage, which leaves
// tmp0[i] = x[i]·y[i].
func (d *Dot) Multiply() Step { return d.steps[0] }
