// SPDX-License-Identifier: MPL-2.0

package target

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// PathEnvVar carries the root set into the child process, joined with the
// platform list separator, so the target can locate its own resources the
// same way the launcher does.
const PathEnvVar = "BOUNCE_PATH"

// defaultGrace is how long Stop waits after a termination request before
// killing the process outright.
const defaultGrace = 5 * time.Second

// ProcLoader loads the entry point as a child process. Each generation owns
// its own process; releasing the generation guarantees the process is gone
// even if an earlier Stop failed.
type ProcLoader struct {
	// Grace is the wait between the polite termination signal and the hard
	// kill. Zero or negative falls back to defaultGrace.
	Grace time.Duration

	// UsePTY attaches the child to a pseudo-terminal and mirrors its output
	// to Stdout. Unix only.
	UsePTY bool

	// Stdout and Stderr receive the child's output. nil values default to
	// os.Stdout / os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Env lists extra KEY=VALUE entries appended to the child environment.
	Env []string
}

// Load resolves the entry point to an executable and prepares an un-started
// process adapter for it. The roots are searched in order; a name without a
// path separator additionally falls back to PATH lookup.
func (l *ProcLoader) Load(_ context.Context, roots []string, entry string) (*Context, App, error) {
	bin, err := resolveEntry(roots, entry)
	if err != nil {
		return nil, nil, err
	}

	grace := l.Grace
	if grace <= 0 {
		grace = defaultGrace
	}
	stdout := l.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := l.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(), l.Env...)
	cmd.Env = append(cmd.Env, PathEnvVar+"="+strings.Join(roots, string(os.PathListSeparator)))
	if !l.UsePTY {
		// pty.Start gives the child its own session, which already puts it
		// in a fresh process group; setting Setpgid as well would make the
		// fork fail.
		setProcessGroup(cmd)
	}

	app := &procApp{
		cmd:    cmd,
		grace:  grace,
		usePTY: l.UsePTY,
		stdout: stdout,
		stderr: stderr,
	}

	c := NewContext(roots)
	c.OnRelease(app.discard)
	return c, app, nil
}

// resolveEntry finds the executable for an entry-point name. Names carrying
// a path separator are taken literally; bare names are searched under each
// root in order, then on PATH.
func resolveEntry(roots []string, entry string) (string, error) {
	if entry == "" {
		return "", fmt.Errorf("target: empty entry point name")
	}

	if filepath.IsAbs(entry) || strings.ContainsRune(entry, os.PathSeparator) {
		if isExecutableFile(entry) {
			return entry, nil
		}
		return "", fmt.Errorf("target: entry point %q is not an executable file", entry)
	}

	for _, root := range roots {
		candidate := filepath.Join(root, entry)
		if isExecutableFile(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(entry); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("target: entry point %q not found under %v or on PATH", entry, roots)
}

func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && canExecute(info)
}

// procApp adapts a child process to the App capability pair.
type procApp struct {
	cmd    *exec.Cmd
	grace  time.Duration
	usePTY bool
	stdout io.Writer
	stderr io.Writer

	mu      sync.Mutex
	started bool
	tty     *os.File
	done    chan struct{}
}

// Start spawns the process. The spawn itself is synchronous — a missing
// interpreter or permission problem surfaces here — while the process then
// runs on its own; a later crash is observed by Stop, not reported by Start.
func (a *procApp) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.started {
		return fmt.Errorf("target: process %q already started", a.cmd.Path)
	}

	if a.usePTY {
		tty, err := startPty(a.cmd)
		if err != nil {
			return fmt.Errorf("target: start %q on pty: %w", a.cmd.Path, err)
		}
		a.tty = tty
		go func() {
			// The copy ends when the child exits and the pty slave closes.
			_, _ = io.Copy(a.stdout, tty)
		}()
	} else {
		a.cmd.Stdout = a.stdout
		a.cmd.Stderr = a.stderr
		if err := a.cmd.Start(); err != nil {
			return fmt.Errorf("target: start %q: %w", a.cmd.Path, err)
		}
	}

	a.started = true
	a.done = make(chan struct{})
	go func(done chan struct{}) {
		_ = a.cmd.Wait()
		close(done)
	}(a.done)
	return nil
}

// Stop asks the process to terminate and escalates to a kill after the grace
// period. Stopping a never-started or already-exited instance is a no-op.
func (a *procApp) Stop() error {
	a.mu.Lock()
	started, done := a.started, a.done
	a.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-done:
		return a.closeTTY()
	default:
	}

	if err := terminateProcess(a.cmd); err != nil {
		select {
		case <-done:
			// Lost the race against the process exiting on its own.
			return a.closeTTY()
		default:
		}
		if killErr := killProcess(a.cmd); killErr != nil {
			return fmt.Errorf("target: stop %q: %w", a.cmd.Path, err)
		}
		<-done
		return a.closeTTY()
	}

	select {
	case <-done:
	case <-time.After(a.grace):
		if err := killProcess(a.cmd); err != nil {
			select {
			case <-done:
			default:
				return fmt.Errorf("target: kill %q: %w", a.cmd.Path, err)
			}
		}
		<-done
	}
	return a.closeTTY()
}

// discard is the generation's backstop: if the process is somehow still
// alive when the generation is released, kill it without grace.
func (a *procApp) discard() error {
	a.mu.Lock()
	started, done := a.started, a.done
	a.mu.Unlock()

	if !started {
		return nil
	}

	select {
	case <-done:
	default:
		_ = killProcess(a.cmd)
		<-done
	}
	return a.closeTTY()
}

func (a *procApp) closeTTY() error {
	a.mu.Lock()
	tty := a.tty
	a.tty = nil
	a.mu.Unlock()

	if tty == nil {
		return nil
	}
	if err := tty.Close(); err != nil {
		return fmt.Errorf("target: close pty: %w", err)
	}
	return nil
}
