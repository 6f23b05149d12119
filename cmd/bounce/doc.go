// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for bounce.
//
// The root command is the launcher itself: it parses the entry point,
// the watched directories, and the include/exclude pattern options,
// then supervises the application until interrupted.
package cmd
