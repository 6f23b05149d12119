// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package target

import (
	"io/fs"
	"os/exec"
	"syscall"
)

// setProcessGroup places the child in its own process group so termination
// signals reach the whole tree, not just the immediate child.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess sends SIGTERM to the child's process group.
func terminateProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
}

// killProcess sends SIGKILL to the child's process group.
func killProcess(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
}

func canExecute(info fs.FileInfo) bool {
	return info.Mode().Perm()&0o111 != 0
}
