// SPDX-License-Identifier: MPL-2.0

package target

import (
	"context"
	"testing"
)

type closableApp struct {
	startStop
	closed bool
}

func (c *closableApp) Close() error { c.closed = true; return nil }

func TestFactoryLoaderLoadsFreshGenerations(t *testing.T) {
	t.Parallel()

	l := NewFactoryLoader()
	built := 0
	l.Register("demo", func() any {
		built++
		return &startStop{}
	})

	roots := []string{"public", "config"}

	ctxA, appA, err := l.Load(context.Background(), roots, "demo")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	ctxB, appB, err := l.Load(context.Background(), roots, "demo")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if built != 2 {
		t.Errorf("constructor ran %d times, want 2", built)
	}
	if appA == appB {
		t.Error("each Load must construct a fresh instance")
	}
	if ctxA.Generation() == ctxB.Generation() {
		t.Error("each Load must produce a fresh generation")
	}
	if got := ctxA.Roots(); len(got) != 2 || got[0] != "public" {
		t.Errorf("context roots = %v, want %v", got, roots)
	}
}

func TestFactoryLoaderUnknownEntry(t *testing.T) {
	t.Parallel()

	l := NewFactoryLoader()
	if _, _, err := l.Load(context.Background(), nil, "missing"); err == nil {
		t.Fatal("expected error for unregistered entry point")
	}
}

func TestFactoryLoaderRejectsIncapableValues(t *testing.T) {
	t.Parallel()

	l := NewFactoryLoader()
	l.Register("broken", func() any { return startOnly{} })

	if _, _, err := l.Load(context.Background(), nil, "broken"); err == nil {
		t.Fatal("expected capability error")
	}
}

func TestFactoryLoaderClosesCloserOnRelease(t *testing.T) {
	t.Parallel()

	l := NewFactoryLoader()
	var current *closableApp
	l.Register("demo", func() any {
		current = &closableApp{}
		return current
	})

	ctx, _, err := l.Load(context.Background(), nil, "demo")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if err := ctx.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if !current.closed {
		t.Error("releasing the generation must close the instance")
	}
}
