// SPDX-License-Identifier: MPL-2.0

package target

import (
	"errors"
	"sync"
	"sync/atomic"
)

// generationCounter assigns each Context a process-unique generation number.
var generationCounter atomic.Int64

// Context is one generation's isolation boundary. It owns every resource
// loaded for that generation and discards them as a single unit on Release —
// never incrementally. Exactly one Context is current at a time; the
// orchestrator releases the previous one only after a replacement has been
// constructed.
type Context struct {
	generation int64
	roots      []string

	mu       sync.Mutex
	closers  []func() error
	released bool
}

// NewContext creates a fresh generation over a snapshot of the given roots.
func NewContext(roots []string) *Context {
	snapshot := make([]string, len(roots))
	copy(snapshot, roots)
	return &Context{
		generation: generationCounter.Add(1),
		roots:      snapshot,
	}
}

// Generation returns the process-unique generation number.
func (c *Context) Generation() int64 { return c.generation }

// Roots returns a copy of the root set this generation was loaded from.
func (c *Context) Roots() []string {
	out := make([]string, len(c.roots))
	copy(out, c.roots)
	return out
}

// OnRelease registers a resource teardown to run when the generation is
// released. Closers run in reverse registration order. Loaders register
// everything during Load; registering after Release is a lost closer.
func (c *Context) OnRelease(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closers = append(c.closers, fn)
}

// Released reports whether Release has run.
func (c *Context) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Release discards the whole generation. It is idempotent: the first call
// runs all registered closers in reverse order and joins their errors; later
// calls are no-ops.
func (c *Context) Release() error {
	c.mu.Lock()
	if c.released {
		c.mu.Unlock()
		return nil
	}
	c.released = true
	closers := c.closers
	c.closers = nil
	c.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
