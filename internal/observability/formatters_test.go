package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/campaign-runner/internal/campaign"
	"github.com/jonathan/campaign-runner/internal/types"
)

func TestPrintCampaignHeader(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCampaignHeader(CampaignHeader{
		CampaignID:    "6f1c",
		Input:         "contacts.csv",
		Output:        "results.csv",
		AssistantName: "Campaign Assistant",
		AssistantID:   "asst-1",
		FromNumber:    "+13157918262",
		APIURL:        "http://localhost:3000",
		Concurrency:   1,
		Delay:         5 * time.Second,
		Contacts:      2,
	})

	output := buf.String()
	assert.Contains(t, output, "CAMPAIGN RUNNER")
	assert.Contains(t, output, "contacts.csv (2 contacts)")
	assert.Contains(t, output, "Campaign Assistant (asst-1)")
	assert.Contains(t, output, "sequential, 5s between calls")
	assert.NotContains(t, output, "Transcripts:")
}

func TestPrintCampaignHeader_Concurrent(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintCampaignHeader(CampaignHeader{Concurrency: 10, SkipTranscript: true})

	assert.Contains(t, buf.String(), "10 parallel calls")
	assert.Contains(t, buf.String(), "Transcripts:  skipped")
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResult(1, 3, types.ResultRecord{Name: "Rahul", CallStatus: types.StatusCompleted})
	p.PrintResult(2, 3, types.ResultRecord{Number: "9876543210", CallStatus: types.StatusFailed})

	assert.Equal(t, "[Done 1/3] Rahul: completed\n[Done 2/3] 9876543210: failed\n", buf.String())
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSummary(campaign.Summary{Total: 4, Completed: 2, NoAnswer: 1, Failed: 1}, "results.csv")

	output := buf.String()
	assert.Contains(t, output, "CAMPAIGN COMPLETE")
	assert.Contains(t, output, "Total:      4")
	assert.Contains(t, output, "Completed:  2")
	assert.Contains(t, output, "No Answer:  1")
	assert.Contains(t, output, "Failed:     1")
	assert.Contains(t, output, "Report:     results.csv")
}

func TestPrintTranscript_Preview(t *testing.T) {
	lines := make([]string, 12)
	for i := range lines {
		lines[i] = "Agent: line"
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintTranscript("TRANSCRIPT", strings.Join(lines, "\n"), false)
	assert.Contains(t, buf.String(), "... and 4 more lines")

	buf.Reset()
	NewPrinter(&buf).PrintTranscript("TRANSCRIPT", strings.Join(lines, "\n"), true)
	assert.NotContains(t, buf.String(), "more lines")

	buf.Reset()
	NewPrinter(&buf).PrintTranscript("TRANSCRIPT", "", false)
	assert.Contains(t, buf.String(), "(no conversation lines)")
}

func TestPrintBox_Alignment(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", "short\nUser: नमस्ते, कौन बोल रहा है?\n"+strings.Repeat("x", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), "line %q", line)
	}
	assert.Contains(t, buf.String(), "...")
}
