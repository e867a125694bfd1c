// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package heat

import "errors"

var (
	// ErrClosed is returned by every Simulation method after Close.
	ErrClosed = errors.New("heat: simulation closed")

	// ErrInvalidConfig is returned when a Config fails validation or does
	// not fit the device limits.
	ErrInvalidConfig = errors.New("heat: invalid config")

	// ErrFieldSize is returned when a seeded field does not hold N×N values.
	ErrFieldSize = errors.New("heat: field size does not match grid")
)
