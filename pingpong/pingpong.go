// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pingpong

import "fmt"

// Direction says which of the two resource sets is active.
type Direction uint8

const (
	// Forward reads the first buffer and writes the second.
	Forward Direction = iota
	// Backward reads the second buffer and writes the first.
	Backward
)

// Next returns the other direction.
func (d Direction) Next() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

// String returns "forward" or "backward".
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// At returns the direction after k strict alternations starting from
// Forward: Forward for even k, Backward for odd k.
func At(k uint64) Direction {
	return Direction(k & 1)
}

// Directional holds a forward and a backward value and the current
// direction. The zero value selects the zero T in the Forward direction.
type Directional[T any] struct {
	forward  T
	backward T
	dir      Direction
	steps    uint64
}

// New returns a Directional starting in the Forward direction.
func New[T any](forward, backward T) *Directional[T] {
	return &Directional[T]{forward: forward, backward: backward}
}

// Select returns the value for the current direction.
func (d *Directional[T]) Select() T {
	return d.Get(d.dir)
}

// Get returns the value for an explicit direction.
func (d *Directional[T]) Get(dir Direction) T {
	if dir == Backward {
		return d.backward
	}
	return d.forward
}

// Direction returns the current direction.
func (d *Directional[T]) Direction() Direction { return d.dir }

// Steps returns how many times Advance has been called since the last
// Reset.
func (d *Directional[T]) Steps() uint64 { return d.steps }

// Advance flips the direction once.
func (d *Directional[T]) Advance() {
	d.dir = d.dir.Next()
	d.steps++
}

// Reset returns to Forward with a zero step count.
func (d *Directional[T]) Reset() {
	d.dir = Forward
	d.steps = 0
}

// Pair is two buffers viewed either way round. Current is the buffer the
// state is read from in the selected direction; Next receives the new
// state.
type Pair[B comparable] struct {
	Current B
	Next    B
}

// NewPair returns the two orientations of buffers a and b: a is current
// going Forward, b is current going Backward.
func NewPair[B comparable](a, b B) (*Directional[Pair[B]], error) {
	if a == b {
		return nil, fmt.Errorf("pingpong: source and destination are the same buffer %v", a)
	}
	return New(Pair[B]{Current: a, Next: b}, Pair[B]{Current: b, Next: a}), nil
}
