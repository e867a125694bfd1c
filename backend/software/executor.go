// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import "sync"

// executor is the software device queue: one goroutine applying operations
// strictly in the order they were pushed. The backlog is unbounded so push
// never blocks the submitting goroutine.
type executor struct {
	mu     sync.Mutex
	cond   *sync.Cond
	ops    []func() error
	busy   bool
	closed bool
	err    error
	done   chan struct{}
}

func newExecutor() *executor {
	e := &executor{done: make(chan struct{})}
	e.cond = sync.NewCond(&e.mu)
	go e.run()
	return e
}

// push appends an operation. Operations pushed after close are dropped.
func (e *executor) push(op func() error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.ops = append(e.ops, op)
	e.cond.Broadcast()
}

func (e *executor) run() {
	defer close(e.done)
	for {
		e.mu.Lock()
		for len(e.ops) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.ops) == 0 {
			e.mu.Unlock()
			return
		}
		op := e.ops[0]
		e.ops[0] = nil
		e.ops = e.ops[1:]
		e.busy = true
		e.mu.Unlock()

		err := op()

		e.mu.Lock()
		e.busy = false
		if err != nil && e.err == nil {
			e.err = err
		}
		e.cond.Broadcast()
		e.mu.Unlock()
	}
}

// wait blocks until the backlog is empty and returns, then clears, the
// first error recorded since the last wait.
func (e *executor) wait() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.ops) > 0 || e.busy {
		e.cond.Wait()
	}
	err := e.err
	e.err = nil
	return err
}

// close stops the goroutine after the backlog has run.
func (e *executor) close() {
	e.mu.Lock()
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()
	<-e.done
}
