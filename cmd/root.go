// Package cmd provides the command-line interface for minutesync.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "minutesync",
	Short: "minutesync turns meeting notes into tracker tickets",
	Long: `minutesync analyzes free-text meeting notes, proposes additions and
changes to a hierarchical Jira project (Epic > Story > Task > Subtask), and
executes the subset of proposals you approve, enforcing the tracker's
parent-child hierarchy rules.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
