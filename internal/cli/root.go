// Package cli implements the hackgrid command-line interface using Cobra.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hackgrid",
	Short: "hackgrid: progression engine for the hacking-puzzle game",
	Long: `hackgrid turns player activity into XP, levels, daily and weekly
missions and achievements, and serves them over a JSON API.

Run 'hackgrid serve' to start the API server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
