// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package solver

import (
	"fmt"

	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
	"github.com/gogpu/heat/kernels"
)

// Scratch is the device working set of a CG solve over n unknowns.
// Kernels built on it hold plain references to its buffers; the Scratch
// owns them.
type Scratch struct {
	// R is the residual.
	R gpucore.BufferID
	// P is the search direction.
	P gpucore.BufferID
	// Q holds A·p.
	Q gpucore.BufferID
	// Sigma and SigmaPrime are one-element squared-norm accumulators.
	Sigma      gpucore.BufferID
	SigmaPrime gpucore.BufferID
	// Tmp0 (n elements) and Tmp1 (kernels.PartialSums(n) elements) are
	// the dot-product reduction scratch.
	Tmp0 gpucore.BufferID
	Tmp1 gpucore.BufferID

	n       uint32
	adapter gpucore.Adapter
}

// NewScratch allocates the working set for n unknowns. On failure the
// buffers created so far are destroyed.
func NewScratch(a gpucore.Adapter, n uint32, label string) (*Scratch, error) {
	if n == 0 {
		return nil, fmt.Errorf("solver: %s: %w", label, ErrEmptySystem)
	}
	s := &Scratch{n: n, adapter: a}
	vec := uint64(n) * 4
	allocs := []struct {
		id   *gpucore.BufferID
		name string
		size uint64
	}{
		{&s.R, "r", vec},
		{&s.P, "p", vec},
		{&s.Q, "q", vec},
		{&s.Sigma, "sigma", 4},
		{&s.SigmaPrime, "sigma_prime", 4},
		{&s.Tmp0, "tmp0", vec},
		{&s.Tmp1, "tmp1", uint64(kernels.PartialSums(n)) * 4},
	}
	for _, b := range allocs {
		id, err := a.CreateBuffer(&gpucore.BufferDesc{
			Label: label + " " + b.name,
			Size:  b.size,
			Usage: gpucore.UsageVector,
		})
		if err != nil {
			s.Release()
			return nil, fmt.Errorf("solver: %s %s: %w", label, b.name, err)
		}
		*b.id = id
	}
	logger.Get().Debug("solver: scratch allocated", "label", label, "n", n)
	return s, nil
}

// N returns the number of unknowns the scratch is sized for.
func (s *Scratch) N() uint32 { return s.n }

// Release destroys the scratch buffers. It is safe to call more than once.
func (s *Scratch) Release() {
	for _, id := range []*gpucore.BufferID{&s.R, &s.P, &s.Q, &s.Sigma, &s.SigmaPrime, &s.Tmp0, &s.Tmp1} {
		if *id != gpucore.InvalidID {
			s.adapter.DestroyBuffer(*id)
			*id = gpucore.InvalidID
		}
	}
}
