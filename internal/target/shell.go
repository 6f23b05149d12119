// SPDX-License-Identifier: MPL-2.0

package target

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ShellLoader loads the entry point as a script run on the embedded POSIX
// shell interpreter. No system shell is involved, so the target behaves the
// same on every platform. Each generation gets a fresh interpreter; nothing
// (variables, functions, working directory) leaks between generations.
type ShellLoader struct {
	// Stdout and Stderr receive the script's output. nil values default to
	// os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Env lists extra KEY=VALUE entries visible to the script.
	Env []string
}

// Load resolves entry (or entry + ".sh") to a script under the roots, parses
// it, and prepares an un-started interpreter adapter. Parse errors surface
// here, before anything runs.
func (l *ShellLoader) Load(_ context.Context, roots []string, entry string) (*Context, App, error) {
	script, err := resolveScript(roots, entry)
	if err != nil {
		return nil, nil, err
	}

	src, err := os.ReadFile(script)
	if err != nil {
		return nil, nil, fmt.Errorf("target: read script %q: %w", script, err)
	}

	prog, err := syntax.NewParser().Parse(strings.NewReader(string(src)), script)
	if err != nil {
		return nil, nil, fmt.Errorf("target: parse script %q: %w", script, err)
	}

	stdout := l.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := l.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	app := &shellApp{
		prog:   prog,
		dir:    filepath.Dir(script),
		env:    append(os.Environ(), append(l.Env, PathEnvVar+"="+strings.Join(roots, string(os.PathListSeparator)))...),
		stdout: stdout,
		stderr: stderr,
	}

	c := NewContext(roots)
	c.OnRelease(app.abort)
	return c, app, nil
}

// resolveScript finds the script file for an entry-point name under the
// roots, trying the bare name first and then name + ".sh" in each root.
func resolveScript(roots []string, entry string) (string, error) {
	if entry == "" {
		return "", fmt.Errorf("target: empty entry point name")
	}

	if filepath.IsAbs(entry) || strings.ContainsRune(entry, os.PathSeparator) {
		if info, err := os.Stat(entry); err == nil && info.Mode().IsRegular() {
			return entry, nil
		}
		return "", fmt.Errorf("target: script %q not found", entry)
	}

	for _, root := range roots {
		for _, name := range []string{entry, entry + ".sh"} {
			candidate := filepath.Join(root, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("target: script for entry point %q not found under %v", entry, roots)
}

// shellApp adapts an interpreter run to the App capability pair.
type shellApp struct {
	prog   *syntax.File
	dir    string
	env    []string
	stdout io.Writer
	stderr io.Writer

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

// Start creates the interpreter and launches the script on its own
// goroutine. Interpreter construction errors surface synchronously.
func (a *shellApp) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		return fmt.Errorf("target: script already started")
	}

	runner, err := interp.New(
		interp.Dir(a.dir),
		interp.Env(expand.ListEnviron(a.env...)),
		interp.StdIO(nil, a.stdout, a.stderr),
	)
	if err != nil {
		return fmt.Errorf("target: create interpreter: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	go func(done chan struct{}) {
		err := runner.Run(ctx, a.prog)
		a.mu.Lock()
		a.runErr = err
		a.mu.Unlock()
		close(done)
	}(a.done)
	return nil
}

// Stop cancels the interpreter and waits for the script goroutine to finish.
// A script that already ran to completion reports its exit error here;
// cancellation itself is not an error.
func (a *shellApp) Stop() error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return nil
	}

	// Whatever a script that is still running does in response to the
	// cancellation is a consequence of this Stop, not a failure worth
	// reporting; only a script that already finished on its own gets its
	// exit error surfaced.
	finished := false
	select {
	case <-done:
		finished = true
	default:
	}

	cancel()
	<-done

	if !finished {
		return nil
	}

	a.mu.Lock()
	err := a.runErr
	a.mu.Unlock()

	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	var exitStatus interp.ExitStatus
	if errors.As(err, &exitStatus) {
		return fmt.Errorf("target: script exited with status %d", uint8(exitStatus))
	}
	return fmt.Errorf("target: script failed: %w", err)
}

// abort is the generation's backstop: cancel the interpreter if it is still
// running when the generation is released.
func (a *shellApp) abort() error {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}
