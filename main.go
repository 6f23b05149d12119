// SPDX-License-Identifier: MPL-2.0

package main

import cmd "bounce-cli/cmd/bounce"

func main() {
	cmd.Execute()
}
