// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/srcpack/srcpack/cmd/srcpack"

func main() {
	cmd.Execute()
}
