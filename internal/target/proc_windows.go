// SPDX-License-Identifier: MPL-2.0

//go:build windows

package target

import (
	"io/fs"
	"os/exec"
)

// setProcessGroup is a no-op on Windows; process trees are not signalled as
// groups here.
func setProcessGroup(_ *exec.Cmd) {}

// terminateProcess has no graceful signal on Windows; it kills the process.
func terminateProcess(cmd *exec.Cmd) error {
	return killProcess(cmd)
}

func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

// canExecute accepts any regular file: Windows has no execute permission
// bit, executability is determined by extension at spawn time.
func canExecute(_ fs.FileInfo) bool {
	return true
}
