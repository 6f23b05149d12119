// SPDX-License-Identifier: MPL-2.0

// Package watch provides recursive filesystem watching over a set of root
// directories.
//
// Every event is forwarded synchronously to a single callback as it arrives.
// There is deliberately no debouncing and no coalescing: the reload
// orchestrator maps qualifying events 1:1 onto reloads, and collapsing a
// burst here would silently change that contract. Relevance filtering is the
// caller's job too — the watcher reports everything except chmod-only noise.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Roots are the directories to watch recursively. Each must exist at
		// construction time.
		Roots []string

		// OnEvent is invoked synchronously on the watcher goroutine for each
		// filesystem event with the event op and the absolute path. A nil
		// callback is a no-op. The callback must not block for long: the
		// watcher cannot read further events while it runs.
		OnEvent func(op fsnotify.Op, path string)

		// Stderr receives diagnostics about skipped paths and recoverable
		// watch errors. nil defaults to os.Stderr.
		Stderr io.Writer
	}

	// Watcher monitors a set of root directories and forwards raw change
	// events. Run must be called exactly once; a second call returns an
	// error.
	Watcher struct {
		cfg     Config
		fsw     *fsnotify.Watcher
		stderr  io.Writer
		started atomic.Bool
	}
)

// New creates a Watcher from the given Config. It initialises the underlying
// fsnotify watcher and registers every directory under each root for
// monitoring.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Roots) == 0 {
		return nil, fmt.Errorf("watch: no root directories to watch")
	}

	stderr := cfg.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		stderr: stderr,
	}

	for _, root := range cfg.Roots {
		if err := w.addTree(root); err != nil {
			if closeErr := fsw.Close(); closeErr != nil {
				fmt.Fprintf(stderr, "watch: close after init failure: %v\n", closeErr)
			}
			return nil, err
		}
	}

	return w, nil
}

// Run blocks until ctx is cancelled, forwarding filesystem events to the
// OnEvent callback. It returns nil on clean context cancellation and
// propagates fatal watcher errors (resource exhaustion, closed channels).
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	defer func() {
		if closeErr := w.fsw.Close(); closeErr != nil {
			fmt.Fprintf(w.stderr, "watch: close fsnotify: %v\n", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}

			// Chmod-only events carry no content change and some platforms
			// emit them spuriously on every write.
			if evt.Op == fsnotify.Chmod {
				continue
			}

			// Auto-add newly created directories so recursive watches extend
			// to directories created after startup.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}

			if w.cfg.OnEvent != nil {
				w.cfg.OnEvent(evt.Op, evt.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			// Resource exhaustion (inotify limit, file descriptor limits)
			// means the watcher is fundamentally broken; everything else is
			// reported and survived. isFatalFsnotifyError is
			// platform-specific (see watcher_fatal_*.go).
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: fsnotify error: %v\n", err)
		}
	}
}

// addTree walks root and adds every directory under it to the fsnotify
// watcher. Inaccessible subdirectories are skipped with a diagnostic rather
// than aborting the walk; a missing or unreadable root itself is an error.
func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("watch: stat root %q: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch: root %q is not a directory", root)
	}

	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			if path == root {
				return walkDirErr
			}
			fmt.Fprintf(w.stderr, "watch: skipping inaccessible path %q: %v\n", path, walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk %q: %w", root, walkErr)
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher if it is a directory. This
// extends monitoring to directories created after the initial walk.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if addErr := w.fsw.Add(path); addErr != nil {
		fmt.Fprintf(w.stderr, "watch: add new directory %q: %v\n", path, addErr)
	}
}
