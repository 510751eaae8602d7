// Package main provides the entry point for the campaign runner CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "campaign_runner",
		Short: "Bulk outbound calling with transcript collection",
		Long: `Campaign Runner places outbound calls for every contact in a CSV file, waits for
each call's transcript to appear on the provider, and writes a consolidated CSV report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCommand())
	root.AddCommand(newTranscriptCommand())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
