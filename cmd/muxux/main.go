// Copyright 2026 The MuxUX Authors
// SPDX-License-Identifier: Apache-2.0

// Muxux is the command-line client for the MuxUX layout daemon.
package main

import (
	"fmt"
	"os"

	"github.com/muxux-dev/muxux/cmd/muxux/cli"
)

func main() {
	if err := cli.Root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
