// SPDX-License-Identifier: MPL-2.0

package target

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// FactoryLoader loads entry points from in-process constructor functions.
// It serves embedders that supervise Go objects rather than external
// processes, and the orchestrator's own tests.
//
// Each registered factory is the entry point's sole constructor: it takes no
// arguments and returns a fresh value per call. The value is capability-
// checked structurally via Adapt.
type FactoryLoader struct {
	mu        sync.RWMutex
	factories map[string]func() any
}

// NewFactoryLoader creates an empty FactoryLoader.
func NewFactoryLoader() *FactoryLoader {
	return &FactoryLoader{factories: make(map[string]func() any)}
}

// Register binds an entry-point name to its constructor. A later Register
// for the same name replaces the earlier one.
func (l *FactoryLoader) Register(name string, factory func() any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[name] = factory
}

// Load constructs a fresh generation: it invokes the registered constructor
// and adapts the result to the App capability set. If the constructed value
// is an io.Closer, it is closed when the generation is released.
func (l *FactoryLoader) Load(_ context.Context, roots []string, entry string) (*Context, App, error) {
	l.mu.RLock()
	factory, ok := l.factories[entry]
	l.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("target: no factory registered for entry point %q", entry)
	}

	v := factory()
	app, err := Adapt(v)
	if err != nil {
		return nil, nil, err
	}

	c := NewContext(roots)
	if closer, ok := v.(io.Closer); ok {
		c.OnRelease(closer.Close)
	}
	return c, app, nil
}
