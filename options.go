// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package heat

import "github.com/gogpu/heat/kernels"

// Option configures a Simulation during creation.
// Use functional options to customize Simulation behavior.
//
// Example:
//
//	// Own kernel library, default label
//	sim, err := heat.New(adapter, heat.DefaultConfig())
//
//	// Share one compiled library between simulations
//	lib, _ := kernels.NewLibrary(adapter)
//	sim, err := heat.New(adapter, cfg, heat.WithLibrary(lib))
type Option func(*options)

// options holds optional configuration for Simulation creation.
type options struct {
	library *kernels.Library
	label   string
}

// defaultOptions returns the default simulation options.
func defaultOptions() options {
	return options{
		library: nil, // Compiled and owned by the simulation if nil
		label:   "heat",
	}
}

// WithLibrary makes the simulation build its kernels from an existing
// library instead of compiling its own. The library must belong to the
// same adapter and is not closed by Simulation.Close; the bind groups the
// simulation creates on it live until the library is closed.
func WithLibrary(lib *kernels.Library) Option {
	return func(o *options) {
		o.library = lib
	}
}

// WithLabel sets the prefix of every device object label.
func WithLabel(label string) Option {
	return func(o *options) {
		if label != "" {
			o.label = label
		}
	}
}
