// SPDX-License-Identifier: MPL-2.0

//go:build windows

package target

import (
	"fmt"
	"os"
	"os/exec"
)

func startPty(_ *exec.Cmd) (*os.File, error) {
	return nil, fmt.Errorf("target: pty attachment is not supported on windows")
}
