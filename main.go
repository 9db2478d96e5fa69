// SPDX-License-Identifier: MPL-2.0

// grootpod provisions and runs the GR00T inference service on GPU pods.
package main

import cmd "grootpod-cli/cmd/grootpod"

func main() {
	cmd.Execute()
}
