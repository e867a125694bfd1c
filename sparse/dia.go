// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sparse

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Construction errors.
var (
	// ErrShape is returned when dimensions and data lengths disagree or the
	// matrix is not square.
	ErrShape = errors.New("sparse: invalid shape")

	// ErrOffsets is returned for an empty, duplicated or out-of-range
	// diagonal offset list.
	ErrOffsets = errors.New("sparse: invalid diagonal offsets")

	// ErrOffMatrix is returned when a diagonal holds a nonzero value in a
	// slot whose column lies outside the matrix.
	ErrOffMatrix = errors.New("sparse: nonzero entry outside the matrix")
)

// DIA is a square sparse matrix in diagonal storage.
//
// Offsets[k] locates diagonal k relative to the main diagonal and
// Data[k*Rows+i] holds the entry at row i, column i+Offsets[k]. Slots whose
// column falls outside [0, Cols) are zero.
type DIA struct {
	Rows    int
	Cols    int
	Offsets []int32
	Data    []float32
}

// NewDIA validates and wraps diagonal data. The slices are not copied.
func NewDIA(rows, cols int, offsets []int32, data []float32) (*DIA, error) {
	if rows <= 0 || rows != cols {
		return nil, fmt.Errorf("%w: %dx%d matrix", ErrShape, rows, cols)
	}
	if err := checkOffsets(rows, offsets); err != nil {
		return nil, err
	}
	if len(data) != len(offsets)*rows {
		return nil, fmt.Errorf("%w: %d values for %d diagonals of %d rows", ErrShape, len(data), len(offsets), rows)
	}

	m := &DIA{Rows: rows, Cols: cols, Offsets: offsets, Data: data}
	for k, off := range offsets {
		for i := range rows {
			if j := i + int(off); (j < 0 || j >= cols) && data[k*rows+i] != 0 {
				return nil, fmt.Errorf("%w: diagonal %d (offset %d) row %d", ErrOffMatrix, k, off, i)
			}
		}
	}
	return m, nil
}

func checkOffsets(n int, offsets []int32) error {
	if len(offsets) == 0 {
		return fmt.Errorf("%w: none given", ErrOffsets)
	}
	seen := make(map[int32]bool, len(offsets))
	for _, off := range offsets {
		if seen[off] {
			return fmt.Errorf("%w: duplicate offset %d", ErrOffsets, off)
		}
		if int(off) <= -n || int(off) >= n {
			return fmt.Errorf("%w: offset %d outside a %d-row matrix", ErrOffsets, off, n)
		}
		seen[off] = true
	}
	return nil
}

// FromDense reduces a row-major dense matrix to the given diagonals.
// Entries of dense that lie on none of the diagonals are dropped.
func FromDense(rows, cols int, dense []float32, offsets []int32) (*DIA, error) {
	if len(dense) != rows*cols {
		return nil, fmt.Errorf("%w: %d dense values for %dx%d", ErrShape, len(dense), rows, cols)
	}
	if rows <= 0 || rows != cols {
		return nil, fmt.Errorf("%w: %dx%d matrix", ErrShape, rows, cols)
	}
	if err := checkOffsets(rows, offsets); err != nil {
		return nil, err
	}

	data := make([]float32, len(offsets)*rows)
	for k, off := range offsets {
		for i := range rows {
			if j := i + int(off); j >= 0 && j < cols {
				data[k*rows+i] = dense[i*cols+j]
			}
		}
	}
	return NewDIA(rows, cols, append([]int32(nil), offsets...), data)
}

// Identity returns the n×n identity stored on the given diagonals. The
// offsets must include the main diagonal; the others are zero.
func Identity(n int, offsets []int32) (*DIA, error) {
	if err := checkOffsets(n, offsets); err != nil {
		return nil, err
	}
	main := -1
	for k, off := range offsets {
		if off == 0 {
			main = k
		}
	}
	if main < 0 {
		return nil, fmt.Errorf("%w: identity needs offset 0", ErrOffsets)
	}

	data := make([]float32, len(offsets)*n)
	for i := range n {
		data[main*n+i] = 1
	}
	return NewDIA(n, n, append([]int32(nil), offsets...), data)
}

// Diagonals returns the number of stored diagonals.
func (m *DIA) Diagonals() int { return len(m.Offsets) }

// At returns the entry at row i, column j.
func (m *DIA) At(i, j int) float32 {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		panic(fmt.Sprintf("sparse: index (%d, %d) out of range for %dx%d", i, j, m.Rows, m.Cols))
	}
	for k, off := range m.Offsets {
		if j-i == int(off) {
			return m.Data[k*m.Rows+i]
		}
	}
	return 0
}

// MulVec computes dst = m·x on the host, accumulating each row in diagonal
// order as the SpMV kernel does.
func (m *DIA) MulVec(dst, x []float32) {
	if len(x) != m.Cols || len(dst) != m.Rows {
		panic(fmt.Sprintf("sparse: MulVec lengths dst=%d x=%d for %dx%d", len(dst), len(x), m.Rows, m.Cols))
	}
	for i := range m.Rows {
		var sum float32
		for k, off := range m.Offsets {
			if j := i + int(off); j >= 0 && j < m.Cols {
				sum += m.Data[k*m.Rows+i] * x[j]
			}
		}
		dst[i] = sum
	}
}

// RowNonzeros returns the number of nonzero entries in row i.
func (m *DIA) RowNonzeros(i int) int {
	count := 0
	for k := range m.Offsets {
		if m.Data[k*m.Rows+i] != 0 {
			count++
		}
	}
	return count
}

// Dense expands the matrix into a gonum dense matrix.
func (m *DIA) Dense() *mat.Dense {
	d := mat.NewDense(m.Rows, m.Cols, nil)
	for k, off := range m.Offsets {
		for i := range m.Rows {
			if j := i + int(off); j >= 0 && j < m.Cols {
				d.Set(i, j, float64(m.Data[k*m.Rows+i]))
			}
		}
	}
	return d
}
