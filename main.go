// Package main is the entry point for the minutesync CLI application.
package main

import (
	"fmt"
	"os"

	"minutesync/cmd"
	"minutesync/internal/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error("command execution failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
