// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sparse

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
)

// ParamsSize is the byte size of the matrix params uniform:
// {num_rows, num_cols, num_diags, pad} as u32.
const ParamsSize = 16

// Matrix is a DIA matrix resident on a device. It is immutable once
// uploaded and owned by whoever called Upload.
type Matrix struct {
	Rows      uint32
	Cols      uint32
	Diagonals uint32

	// Params is the uniform {num_rows, num_cols, num_diags, pad}.
	Params gpucore.BufferID
	// Data holds Diagonals×Rows float32 values, diagonal-major.
	Data gpucore.BufferID
	// Offsets holds Diagonals int32 offsets.
	Offsets gpucore.BufferID

	adapter gpucore.Adapter
}

// Upload copies m into device buffers. Uploads are ordered before any
// work submitted afterwards, so the matrix may be used immediately.
func Upload(a gpucore.Adapter, m *DIA, label string) (*Matrix, error) {
	if m == nil {
		return nil, fmt.Errorf("sparse: upload %q: nil matrix", label)
	}
	gm := &Matrix{
		Rows:      uint32(m.Rows),
		Cols:      uint32(m.Cols),
		Diagonals: uint32(len(m.Offsets)),
		adapter:   a,
	}

	var err error
	if gm.Params, err = createFilled(a, label+" params", gpucore.UsageParams,
		gpucore.Uint32Bytes([]uint32{gm.Rows, gm.Cols, gm.Diagonals, 0})); err != nil {
		gm.Release()
		return nil, err
	}
	if gm.Data, err = createFilled(a, label+" data", gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst,
		gpucore.Float32Bytes(m.Data)); err != nil {
		gm.Release()
		return nil, err
	}
	if gm.Offsets, err = createFilled(a, label+" offsets", gpucore.BufferUsageStorage|gpucore.BufferUsageCopyDst,
		gpucore.Int32Bytes(m.Offsets)); err != nil {
		gm.Release()
		return nil, err
	}

	logger.Get().Debug("sparse: matrix uploaded",
		"label", label, "rows", gm.Rows, "diagonals", gm.Diagonals)
	return gm, nil
}

func createFilled(a gpucore.Adapter, label string, usage gpucore.BufferUsage, data []byte) (gpucore.BufferID, error) {
	id, err := a.CreateBuffer(&gpucore.BufferDesc{Label: label, Size: uint64(len(data)), Usage: usage})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("sparse: create %s: %w", label, err)
	}
	if err := a.WriteBuffer(id, 0, data); err != nil {
		a.DestroyBuffer(id)
		return gpucore.InvalidID, fmt.Errorf("sparse: write %s: %w", label, err)
	}
	return id, nil
}

// Release destroys the device buffers. It is safe to call more than once.
func (m *Matrix) Release() {
	for _, id := range []*gpucore.BufferID{&m.Params, &m.Data, &m.Offsets} {
		if *id != gpucore.InvalidID {
			m.adapter.DestroyBuffer(*id)
			*id = gpucore.InvalidID
		}
	}
}
