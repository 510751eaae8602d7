// Package observability provides formatted console output for campaign runs.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/campaign-runner/internal/campaign"
	"github.com/jonathan/campaign-runner/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxTranscriptLines is the number of transcript lines shown in a preview
	maxTranscriptLines = 8
)

// Printer handles formatted output for the CLI.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// fmt pads by rune count, so truncation is by runes as well
		line = truncate(line, boxWidth-4)
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// CampaignHeader describes a run before it starts.
type CampaignHeader struct {
	CampaignID     string
	Input          string
	Output         string
	AssistantName  string
	AssistantID    string
	FromNumber     string
	APIURL         string
	Concurrency    int
	Delay          time.Duration
	Contacts       int
	SkipTranscript bool
}

// PrintCampaignHeader outputs the run parameters.
func (p *Printer) PrintCampaignHeader(h CampaignHeader) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Campaign:     %s\n", h.CampaignID)
	fmt.Fprintf(&sb, "Input:        %s (%d contacts)\n", h.Input, h.Contacts)
	fmt.Fprintf(&sb, "Output:       %s\n", h.Output)
	fmt.Fprintf(&sb, "Assistant:    %s (%s)\n", h.AssistantName, h.AssistantID)
	fmt.Fprintf(&sb, "From Number:  %s\n", h.FromNumber)
	fmt.Fprintf(&sb, "API URL:      %s\n", h.APIURL)
	if h.Concurrency <= 1 {
		fmt.Fprintf(&sb, "Mode:         sequential, %s between calls\n", h.Delay)
	} else {
		fmt.Fprintf(&sb, "Mode:         %d parallel calls\n", h.Concurrency)
	}
	if h.SkipTranscript {
		sb.WriteString("Transcripts:  skipped\n")
	}

	p.printBox("CAMPAIGN RUNNER", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintResult outputs a one-line completion event for a contact.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintResult(done, total int, r types.ResultRecord) {
	name := r.Name
	if name == "" {
		name = r.Number
	}
	fmt.Fprintf(p.out, "[Done %d/%d] %s: %s\n", done, total, name, r.CallStatus)
}

// PrintSummary outputs per-status counts and where the report was written.
func (p *Printer) PrintSummary(s campaign.Summary, output string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Total:      %d\n", s.Total)
	fmt.Fprintf(&sb, "Completed:  %d\n", s.Completed)
	fmt.Fprintf(&sb, "No Answer:  %d\n", s.NoAnswer)
	fmt.Fprintf(&sb, "Failed:     %d\n", s.Failed)
	if output != "" {
		fmt.Fprintf(&sb, "\nReport:     %s", output)
	}

	p.printBox("CAMPAIGN COMPLETE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintTranscript outputs a conversation, truncated to a preview unless full
// is set.
func (p *Printer) PrintTranscript(title, transcript string, full bool) {
	if transcript == "" {
		p.printBox(title, "(no conversation lines)")
		return
	}

	lines := strings.Split(transcript, "\n")
	if !full && len(lines) > maxTranscriptLines {
		extra := len(lines) - maxTranscriptLines
		lines = append(lines[:maxTranscriptLines], fmt.Sprintf("... and %d more lines", extra))
	}
	p.printBox(title, strings.Join(lines, "\n"))
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}
