// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sparse

import "fmt"

// StencilOffsets returns the diagonal offsets of a 5-point stencil on an
// n×n grid stored in row-major order: {-n, -1, 0, 1, n}.
func StencilOffsets(n int) []int32 {
	return []int32{int32(-n), -1, 0, 1, int32(n)}
}

// Stencil5 builds the (n²)×(n²) matrix of a 5-point stencil with the given
// center and neighbour coefficients. Horizontal neighbours that would wrap
// across a grid row are zero.
func Stencil5(n int, center, neighbour float32) (*DIA, error) {
	if n < 2 {
		return nil, fmt.Errorf("%w: %d×%d grid, need at least 2×2", ErrShape, n, n)
	}
	m := n * n
	offsets := StencilOffsets(n)
	data := make([]float32, len(offsets)*m)

	for k, off := range offsets {
		for i := range m {
			j := i + int(off)
			if j < 0 || j >= m {
				continue
			}
			switch {
			case off == 0:
				data[k*m+i] = center
			case off == -1 && i%n == 0:
				// first column: no left neighbour
			case off == 1 && j%n == 0:
				// last column: no right neighbour
			default:
				data[k*m+i] = neighbour
			}
		}
	}
	return NewDIA(m, m, offsets, data)
}

// Laplacian5 returns the 5-point discrete Laplacian on an n×n grid with
// unit spacing: -4 on the diagonal and 1 for each in-grid neighbour.
func Laplacian5(n int) (*DIA, error) {
	return Stencil5(n, -4, 1)
}

// Gamma returns the Crank–Nicolson coupling α·dt/(2h²) with h = 1/n.
func Gamma(n int, alpha, dt float32) float32 {
	h := 1 / float32(n)
	return alpha * dt / (2 * h * h)
}

// HeatOperators returns the Crank–Nicolson operators for the heat equation
// on an n×n grid: the implicit matrix A (1+4γ, -γ) solved each step and the
// explicit matrix B (1-4γ, +γ) applied to the current field.
func HeatOperators(n int, alpha, dt float32) (implicit, explicit *DIA, err error) {
	g := Gamma(n, alpha, dt)
	implicit, err = Stencil5(n, 1+4*g, -g)
	if err != nil {
		return nil, nil, err
	}
	explicit, err = Stencil5(n, 1-4*g, g)
	if err != nil {
		return nil, nil, err
	}
	return implicit, explicit, nil
}
