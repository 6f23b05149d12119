// SPDX-License-Identifier: MPL-2.0

package target

import "runtime"

// RedefineSupported reports whether the host platform can load new code into
// a live process at all (Go plugin support). The answer is purely
// informational: the launcher always performs full cold swaps regardless, so
// this only shapes the startup banner.
func RedefineSupported() bool {
	switch runtime.GOOS {
	case "linux", "darwin", "freebsd":
		return true
	default:
		return false
	}
}
