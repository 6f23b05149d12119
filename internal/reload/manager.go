// SPDX-License-Identifier: MPL-2.0

// Package reload orchestrates cold swaps of the supervised application.
//
// A Manager owns a single dedicated worker goroutine; every reload is
// submitted to it and executed serially, so no two generations ever
// interleave. The watcher callback only filters and enqueues — it never
// blocks on a slow application start, and a burst of N qualifying events
// yields exactly N sequential reloads.
package reload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"bounce-cli/internal/pathfilter"
	"bounce-cli/internal/target"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

type (
	// Config holds the parameters for a Manager.
	Config struct {
		// Loader constructs each generation.
		Loader target.Loader

		// Entry is the entry-point name handed to the Loader.
		Entry string

		// Roots are the directories that both scope change events and form
		// each generation's load path. Immutable after construction;
		// relative paths are made absolute.
		Roots []string

		// Rule decides which changed paths trigger a reload.
		Rule pathfilter.Rule

		// Logger receives recovered errors and reload progress. nil
		// defaults to a logger on os.Stderr.
		Logger *log.Logger
	}

	// generation pairs one isolation context with its running instance.
	// The pair is published atomically: readers either see a complete
	// generation or none at all.
	generation struct {
		isoCtx *target.Context
		app    target.App
	}

	// Manager serializes reloads of the supervised application onto one
	// worker goroutine. Reload and OnChange may be called from any
	// goroutine; the current-generation handle is written only by the
	// worker and read atomically everywhere else.
	Manager struct {
		loader target.Loader
		entry  string
		roots  []string
		rule   pathfilter.Rule
		logger *log.Logger

		queue   *taskQueue
		current atomic.Pointer[generation]

		workerDone chan struct{}
		closeOnce  sync.Once
	}
)

// New validates the config and starts the Manager's worker. The worker idles
// until the first Reload; callers enqueue the initial start themselves.
func New(cfg Config) (*Manager, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("reload: no loader configured")
	}
	if cfg.Entry == "" {
		return nil, fmt.Errorf("reload: no entry point configured")
	}
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("reload: no root directories configured")
	}

	roots := make([]string, len(cfg.Roots))
	for i, root := range cfg.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("reload: resolve root %q: %w", root, err)
		}
		roots[i] = abs
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}

	m := &Manager{
		loader:     cfg.Loader,
		entry:      cfg.Entry,
		roots:      roots,
		rule:       cfg.Rule,
		logger:     logger,
		queue:      newTaskQueue(),
		workerDone: make(chan struct{}),
	}

	go m.work()
	return m, nil
}

// Roots returns a copy of the absolute root set.
func (m *Manager) Roots() []string {
	out := make([]string, len(m.roots))
	copy(out, m.roots)
	return out
}

// Running reports whether an instance is currently up. Safe from any
// goroutine.
func (m *Manager) Running() bool {
	return m.current.Load() != nil
}

// Generation returns the current generation number, or false when no
// instance is up.
func (m *Manager) Generation() (int64, bool) {
	gen := m.current.Load()
	if gen == nil {
		return 0, false
	}
	return gen.isoCtx.Generation(), true
}

// Reload enqueues one full cold swap on the worker. It never blocks; calls
// after Close are dropped.
func (m *Manager) Reload() {
	m.queue.Enqueue(m.doReload)
}

// OnChange is the watcher callback. It resolves the path against the root
// set, applies the path rule, and enqueues a reload for relevant changes.
// Irrelevant events — paths outside every root, or filtered out — are
// ignored silently. Any failure here is logged and swallowed so the watcher
// keeps running.
func (m *Manager) OnChange(op fsnotify.Op, path string) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("change event handling failed", "path", path, "panic", r)
		}
	}()

	rel, ok := m.relativize(path)
	if !ok {
		return
	}
	if !m.rule.Relevant(rel) {
		return
	}

	m.logger.Debug("change triggers reload", "op", op.String(), "path", rel)
	m.Reload()
}

// Close shuts the worker down, then stops and releases the current
// generation. Queued reloads that have not started yet are executed first —
// the orderly-drain keeps Close from racing an in-flight reload.
func (m *Manager) Close() error {
	var err error
	m.closeOnce.Do(func() {
		m.queue.Close()
		<-m.workerDone

		gen := m.current.Load()
		if gen == nil {
			return
		}
		m.current.Store(nil)
		if stopErr := gen.app.Stop(); stopErr != nil {
			err = fmt.Errorf("reload: stop instance: %w", stopErr)
		}
		if relErr := gen.isoCtx.Release(); relErr != nil && err == nil {
			err = fmt.Errorf("reload: release generation %d: %w", gen.isoCtx.Generation(), relErr)
		}
	})
	return err
}

// work is the dedicated worker loop. Tasks run strictly in arrival order,
// one at a time.
func (m *Manager) work() {
	defer close(m.workerDone)
	for {
		task, ok := m.queue.Next()
		if !ok {
			return
		}
		task()
	}
}

// relativize finds the first root containing path and returns the path
// relative to it. Paths outside every root report false.
func (m *Manager) relativize(path string) (string, bool) {
	for _, root := range m.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			continue
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
			continue
		}
		return rel, true
	}
	return "", false
}

// doReload performs one cold swap on the worker goroutine:
// stop the old instance, build and start a new generation, release the old
// generation, publish the new one. The old generation is released whether or
// not its successor came up, so a failed start never leaks the previous
// generation's resources.
func (m *Manager) doReload() {
	prev := m.current.Load()
	if prev != nil {
		if err := prev.app.Stop(); err != nil {
			m.logger.Error("failed to stop previous instance",
				"generation", prev.isoCtx.Generation(), "err", err)
		}
		// From here on there is no current instance until the new one is up.
		m.current.Store(nil)
	}

	isoCtx, app, err := m.loader.Load(context.Background(), m.roots, m.entry)
	if err == nil {
		if startErr := app.Start(); startErr != nil {
			err = startErr
			// The stillborn generation is discarded the same way an old one
			// would be.
			if relErr := isoCtx.Release(); relErr != nil {
				m.logger.Error("failed to release unstarted generation",
					"generation", isoCtx.Generation(), "err", relErr)
			}
			isoCtx, app = nil, nil
		}
	}
	if err != nil {
		m.logger.Error("failed to start entry point", "entry", m.entry, "err", err)
	}

	if prev != nil {
		if relErr := prev.isoCtx.Release(); relErr != nil {
			m.logger.Error("failed to release previous generation",
				"generation", prev.isoCtx.Generation(), "err", relErr)
		}
	}

	if err == nil {
		m.current.Store(&generation{isoCtx: isoCtx, app: app})
		m.logger.Info("application loaded", "entry", m.entry, "generation", isoCtx.Generation())
	}
}
