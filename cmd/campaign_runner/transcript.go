package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/campaign-runner/internal/observability"
	"github.com/jonathan/campaign-runner/internal/transcripts"
)

func newTranscriptCommand() *cobra.Command {
	var (
		transcriptURL  string
		transcriptFile string
		boxed          bool
	)

	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Render a line-delimited transcript as a readable conversation",
		Long: `Downloads (--url) or reads (--file) a line-delimited JSON transcript and prints
the conversation as "Speaker: text" lines. Metadata lines are dropped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (transcriptURL == "") == (transcriptFile == "") {
				return fmt.Errorf("exactly one of --url or --file must be provided")
			}

			var payload string
			if transcriptFile != "" {
				data, err := os.ReadFile(transcriptFile)
				if err != nil {
					return fmt.Errorf("failed to read transcript file: %w", err)
				}
				payload = string(data)
			} else {
				raw, err := transcripts.NewContentClient(nil).FetchContent(cmd.Context(), transcriptURL)
				if err != nil {
					return fmt.Errorf("failed to fetch transcript: %w", err)
				}
				payload = raw
			}

			conversation := transcripts.ExtractConversation(payload)
			if boxed {
				observability.NewPrinter(cmd.OutOrStdout()).PrintTranscript("TRANSCRIPT", conversation, true)
				return nil
			}
			if conversation != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), conversation)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&transcriptURL, "url", "", "Transcript URL to download")
	cmd.Flags().StringVar(&transcriptFile, "file", "", "Local transcript file (.jsonl)")
	cmd.Flags().BoolVar(&boxed, "box", false, "Print the conversation inside a box")

	return cmd
}
