// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/modsys/cmd/modsys"

func main() {
	cmd.Execute()
}
