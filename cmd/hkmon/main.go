// Package main is the entry point for hkmon, a command-line hardware counter
// monitor. It samples CPU, memory, disk, network, and temperature metrics as
// a single shot or continuously, bridging rate calculations across
// invocations through a small state file.
package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes: 0 success, 1 usage error, 2 runtime failure.
func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		code := 2
		var uerr *usageError
		if errors.As(err, &uerr) {
			code = 1
			fmt.Fprintln(os.Stderr, "Use --help for usage information.")
		}
		os.Exit(code)
	}
}
