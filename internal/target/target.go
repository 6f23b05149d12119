// SPDX-License-Identifier: MPL-2.0

// Package target defines the boundary to the supervised application: the
// start/stop capability contract, the per-generation isolation context, and
// the loaders that construct a fresh instance of the entry point from a set
// of root directories.
//
// A generation is loaded and discarded as a whole. Nothing from a previous
// generation survives into the next one; that is the point.
package target

import (
	"context"
	"fmt"
)

type (
	// App is the capability pair every supervised application must expose.
	// Implementations are usually adapters produced by a Loader, not the
	// target's own types — the target is not required to declare this
	// interface.
	App interface {
		// Start brings the instance up. It must return promptly once the
		// instance is running (or has failed to come up); long-running work
		// belongs on the instance's own goroutines or process.
		Start() error
		// Stop brings the instance down. Stop on an already-stopped instance
		// must be safe.
		Stop() error
	}

	// Loader constructs one fresh generation: a new isolation Context and an
	// un-started App for the named entry point, resolved against the given
	// root directories. Load must not start the instance.
	Loader interface {
		Load(ctx context.Context, roots []string, entry string) (*Context, App, error)
	}

	starter interface{ Start() error }
	stopper interface{ Stop() error }

	adapted struct {
		s starter
		p stopper
	}
)

func (a adapted) Start() error { return a.s.Start() }
func (a adapted) Stop() error  { return a.p.Stop() }

// Adapt wraps an arbitrary value in the App capability set. The value is
// checked structurally: it must expose Start() error and Stop() error, but
// does not need to declare any particular interface. A missing capability is
// reported by name.
func Adapt(v any) (App, error) {
	s, ok := v.(starter)
	if !ok {
		return nil, fmt.Errorf("target: %T does not expose Start() error", v)
	}
	p, ok := v.(stopper)
	if !ok {
		return nil, fmt.Errorf("target: %T does not expose Stop() error", v)
	}
	return adapted{s: s, p: p}, nil
}
