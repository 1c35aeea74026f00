// Package cmd wires the flowsketch commands together.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowsketch",
	Short: "flowsketch - conversational diagram service",
	Long: `flowsketch turns natural-language prompts into process diagrams.

It keeps the full conversation behind every diagram, so any earlier
state can be inspected and restored. Running flowsketch without a
subcommand starts the HTTP server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
