// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package target

import (
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// startPty starts cmd attached to a fresh pseudo-terminal and returns the
// master side.
func startPty(cmd *exec.Cmd) (*os.File, error) {
	return pty.Start(cmd)
}
