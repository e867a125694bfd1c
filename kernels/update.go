// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernels

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
)

// Op is the combining operation of a ScaledUpdate.
type Op int

const (
	// Add combines with +.
	Add Op = iota
	// Sub combines with -.
	Sub
)

// String returns "add" or "sub".
func (o Op) String() string {
	switch o {
	case Add:
		return "add"
	case Sub:
		return "sub"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Scale selects which operand of a ScaledUpdate the ratio multiplies.
type Scale int

const (
	// ScaleSource computes y = y OP r·x.
	ScaleSource Scale = iota
	// ScaleTarget computes y = x OP r·y.
	ScaleTarget
)

// Update computes y = x - y elementwise.
type Update struct {
	step Step
}

// NewUpdate binds two length-n vectors.
func NewUpdate(lib *Library, n uint32, x, y gpucore.BufferID, label string) (*Update, error) {
	grid := gpucore.Linear(gpucore.WorkgroupCount(n, UpdateWorkgroupSize))
	step, err := lib.step(programUpdate, entryMain, label, grid, x, y)
	if err != nil {
		return nil, err
	}
	return &Update{step: step}, nil
}

// Steps returns the single update dispatch.
func (k *Update) Steps() []Step { return []Step{k.step} }

// ScaledUpdate applies y = y OP r·x (ScaleSource) or y = x OP r·y
// (ScaleTarget) with r = a1[0]/a2[0] read from device scalars when the
// dispatch runs. A zero a2[0] gives r = 0. The operation and the scaled
// operand are fixed at construction.
type ScaledUpdate struct {
	op    Op
	scale Scale
	step  Step
}

func scaledEntry(op Op, scale Scale) (string, error) {
	switch {
	case op == Add && scale == ScaleSource:
		return entryAdd, nil
	case op == Sub && scale == ScaleSource:
		return entrySub, nil
	case op == Add && scale == ScaleTarget:
		return entryAddTarget, nil
	case op == Sub && scale == ScaleTarget:
		return entrySubTarget, nil
	}
	return "", fmt.Errorf("kernels: no scaled update for op %v scale %d", op, int(scale))
}

// NewScaledUpdate binds the scalars a1, a2 and two length-n vectors.
func NewScaledUpdate(lib *Library, op Op, scale Scale, n uint32, a1, a2, x, y gpucore.BufferID, label string) (*ScaledUpdate, error) {
	entry, err := scaledEntry(op, scale)
	if err != nil {
		return nil, err
	}
	grid := gpucore.Linear(gpucore.WorkgroupCount(n, UpdateWorkgroupSize))
	step, err := lib.step(programScaledUpdate, entry, label, grid, a1, a2, x, y)
	if err != nil {
		return nil, err
	}
	return &ScaledUpdate{op: op, scale: scale, step: step}, nil
}

// Op returns the combining operation.
func (k *ScaledUpdate) Op() Op { return k.op }

// Steps returns the single update dispatch.
func (k *ScaledUpdate) Steps() []Step { return []Step{k.step} }
