// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package kernels

import (
	_ "embed"

	"github.com/gogpu/heat/gpucore"
)

// Embedded WGSL shader sources.

//go:embed shaders/spmv.wgsl
var spmvShaderSource string

//go:embed shaders/dot.wgsl
var dotShaderSource string

//go:embed shaders/update.wgsl
var updateShaderSource string

//go:embed shaders/scaled_update.wgsl
var scaledUpdateShaderSource string

// Workgroup sizes, matching the @workgroup_size of each shader.
const (
	SpMVWorkgroupSize   = 64
	ReduceWorkgroupSize = 256
	UpdateWorkgroupSize = 256
)

// Entry points.
const (
	entryMain      = "main"
	entryVecMul    = "vec_mul"
	entryBlockSum  = "block_sum"
	entryFinalSum  = "final_sum"
	entryAdd       = "add"
	entrySub       = "sub"
	entryAddTarget = "add_target"
	entrySubTarget = "sub_target"
)

// program identifies one shader module of the library.
type program int

const (
	programSpMV program = iota
	programDot
	programUpdate
	programScaledUpdate
	programCount
)

// programDef is everything needed to build a program on an adapter.
type programDef struct {
	label   string
	source  string
	layout  []gpucore.BindGroupLayoutEntry
	entries []string
	host    map[string]gpucore.HostProgram
}

func storage(binding uint32) gpucore.BindGroupLayoutEntry {
	return gpucore.BindGroupLayoutEntry{Binding: binding, Type: gpucore.BindingTypeStorageBuffer}
}

func readOnly(binding uint32) gpucore.BindGroupLayoutEntry {
	return gpucore.BindGroupLayoutEntry{Binding: binding, Type: gpucore.BindingTypeReadOnlyStorageBuffer}
}

func uniform(binding uint32) gpucore.BindGroupLayoutEntry {
	return gpucore.BindGroupLayoutEntry{Binding: binding, Type: gpucore.BindingTypeUniformBuffer}
}

var programs = [programCount]programDef{
	programSpMV: {
		label:   "spmv",
		source:  spmvShaderSource,
		layout:  []gpucore.BindGroupLayoutEntry{readOnly(0), uniform(1), readOnly(2), readOnly(3), storage(4)},
		entries: []string{entryMain},
		host:    map[string]gpucore.HostProgram{entryMain: spmvHost},
	},
	programDot: {
		label:   "dot",
		source:  dotShaderSource,
		layout:  []gpucore.BindGroupLayoutEntry{uniform(0), readOnly(1), readOnly(2), storage(3), storage(4), storage(5)},
		entries: []string{entryVecMul, entryBlockSum, entryFinalSum},
		host: map[string]gpucore.HostProgram{
			entryVecMul:   vecMulHost,
			entryBlockSum: blockSumHost,
			entryFinalSum: finalSumHost,
		},
	},
	programUpdate: {
		label:   "update",
		source:  updateShaderSource,
		layout:  []gpucore.BindGroupLayoutEntry{readOnly(0), storage(1)},
		entries: []string{entryMain},
		host:    map[string]gpucore.HostProgram{entryMain: updateHost},
	},
	programScaledUpdate: {
		label:   "scaled_update",
		source:  scaledUpdateShaderSource,
		layout:  []gpucore.BindGroupLayoutEntry{readOnly(0), readOnly(1), readOnly(2), storage(3)},
		entries: []string{entryAdd, entrySub, entryAddTarget, entrySubTarget},
		host: map[string]gpucore.HostProgram{
			entryAdd:       scaledHost(Add, ScaleSource),
			entrySub:       scaledHost(Sub, ScaleSource),
			entryAddTarget: scaledHost(Add, ScaleTarget),
			entrySubTarget: scaledHost(Sub, ScaleTarget),
		},
	},
}

// Host programs. Each runs one workgroup and reproduces its shader,
// including the order of floating-point accumulation.

func spmvHost(g gpucore.Group, b *gpucore.Bindings) {
	x := b.F32(0)
	params := b.U32(1)
	data := b.F32(2)
	offsets := b.I32(3)
	y := b.F32(4)

	rows, cols, diags := params[0], params[1], params[2]
	base := g.ID[0] * SpMVWorkgroupSize
	for local := uint32(0); local < SpMVWorkgroupSize; local++ {
		row := base + local
		if row >= rows {
			return
		}
		var sum float32
		for k := uint32(0); k < diags; k++ {
			col := int64(row) + int64(offsets[k])
			if col >= 0 && col < int64(cols) {
				sum += data[k*rows+row] * x[col]
			}
		}
		y[row] = sum
	}
}

func vecMulHost(g gpucore.Group, b *gpucore.Bindings) {
	n := b.U32(0)[0]
	x, y, tmp0 := b.F32(1), b.F32(2), b.F32(3)

	base := g.ID[0] * ReduceWorkgroupSize
	for local := uint32(0); local < ReduceWorkgroupSize; local++ {
		if i := base + local; i < n {
			tmp0[i] = x[i] * y[i]
		}
	}
}

// treeReduce folds partial into partial[0] with halving strides, the
// order the shaders' shared-memory loop uses.
func treeReduce(partial *[ReduceWorkgroupSize]float32) {
	for stride := ReduceWorkgroupSize / 2; stride > 0; stride /= 2 {
		for lid := range stride {
			partial[lid] += partial[lid+stride]
		}
	}
}

func blockSumHost(g gpucore.Group, b *gpucore.Bindings) {
	n := b.U32(0)[0]
	tmp0, tmp1 := b.F32(3), b.F32(4)

	var partial [ReduceWorkgroupSize]float32
	base := g.ID[0] * ReduceWorkgroupSize
	for lid := uint32(0); lid < ReduceWorkgroupSize; lid++ {
		if i := base + lid; i < n {
			partial[lid] = tmp0[i]
		}
	}
	treeReduce(&partial)
	tmp1[g.ID[0]] = partial[0]
}

func finalSumHost(_ gpucore.Group, b *gpucore.Bindings) {
	groups := b.U32(0)[1]
	tmp1, out := b.F32(4), b.F32(5)

	var partial [ReduceWorkgroupSize]float32
	for lid := uint32(0); lid < ReduceWorkgroupSize; lid++ {
		var acc float32
		for i := lid; i < groups; i += ReduceWorkgroupSize {
			acc += tmp1[i]
		}
		partial[lid] = acc
	}
	treeReduce(&partial)
	out[0] = partial[0]
}

func updateHost(g gpucore.Group, b *gpucore.Bindings) {
	x, y := b.F32(0), b.F32(1)

	base := g.ID[0] * UpdateWorkgroupSize
	for local := uint32(0); local < UpdateWorkgroupSize; local++ {
		if i := base + local; i < uint32(len(y)) {
			y[i] = x[i] - y[i]
		}
	}
}

func scaledHost(op Op, scale Scale) gpucore.HostProgram {
	return func(g gpucore.Group, b *gpucore.Bindings) {
		a1, a2, x, y := b.F32(0), b.F32(1), b.F32(2), b.F32(3)

		var r float32
		if a2[0] != 0 {
			r = a1[0] / a2[0]
		}
		base := g.ID[0] * UpdateWorkgroupSize
		for local := uint32(0); local < UpdateWorkgroupSize; local++ {
			i := base + local
			if i >= uint32(len(y)) {
				return
			}
			switch {
			case op == Add && scale == ScaleSource:
				y[i] = y[i] + float32(r*x[i])
			case op == Sub && scale == ScaleSource:
				y[i] = y[i] - float32(r*x[i])
			case op == Add && scale == ScaleTarget:
				y[i] = x[i] + float32(r*y[i])
			default:
				y[i] = x[i] - float32(r*y[i])
			}
		}
	}
}
