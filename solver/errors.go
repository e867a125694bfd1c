// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package solver

import "errors"

var (
	// ErrEmptySystem is returned for a system with no unknowns.
	ErrEmptySystem = errors.New("solver: empty system")

	// ErrSizeMismatch is returned when the matrix and the scratch arena
	// are sized for different systems.
	ErrSizeMismatch = errors.New("solver: size mismatch")

	// ErrNotSquare is returned for a non-square operator.
	ErrNotSquare = errors.New("solver: operator is not square")

	// ErrAliased is returned when the right-hand side and the solution are
	// the same buffer.
	ErrAliased = errors.New("solver: b and x alias")
)
