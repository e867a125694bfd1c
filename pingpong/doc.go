// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pingpong selects between two pre-built resource sets that play
// opposite source and destination roles over the same pair of buffers.
//
// A time-stepping loop that reads state from one buffer and writes the
// next state into the other builds both orientations once:
//
//	d := pingpong.New(forwardStep, backwardStep)
//	for range steps {
//		run(d.Select())
//		d.Advance()
//	}
//
// Nothing is rebuilt or copied per step; only the selection changes.
//
// # Thread Safety
//
// A Directional has a single writer. Advance must only be called by the
// loop that submits the steps, after the step for the current direction
// has been submitted. Readers on other goroutines need their own
// synchronization with that writer.
package pingpong
