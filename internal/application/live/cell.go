// Package live keeps screen state in step with the change feed.
//
// A hook is mounted with Start and torn down with Close. Every state write
// is tagged with a sequence number taken before the read it reports on, so a
// slow read can never overwrite the result of a later one, and nothing is
// written once the hook is closed.
package live

import "sync"

// cell holds one hook's state behind its alive flag and sequence counter.
type cell[T any] struct {
	mu      sync.Mutex
	state   T
	alive   bool
	issued  uint64
	applied uint64
	updates chan T
}

func newCell[T any](initial T) *cell[T] {
	return &cell[T]{state: initial, alive: true, updates: make(chan T, 1)}
}

// begin reserves the sequence number for a read that is about to start.
func (c *cell[T]) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

// apply writes the result of read seq through fn.
// POST: returns false and leaves the state alone when the hook is closed or a
// newer read has already been applied.
func (c *cell[T]) apply(seq uint64, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive || seq < c.applied {
		return false
	}
	c.applied = seq
	fn(&c.state)
	c.push(c.state)
	return true
}

// push offers s to Updates, replacing any snapshot not yet read.
// PRE: c.mu is held and the cell is alive
func (c *cell[T]) push(s T) {
	select {
	case <-c.updates:
	default:
	}
	c.updates <- s
}

func (c *cell[T]) get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *cell[T]) isAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// kill marks the cell dead and closes Updates. Reports whether this call did it.
func (c *cell[T]) kill() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.alive {
		return false
	}
	c.alive = false
	close(c.updates)
	return true
}
