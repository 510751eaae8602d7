// Package campaign runs contacts through call submission and transcript
// reconciliation and collects one result per contact.
package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/campaign-runner/internal/logging"
	"github.com/jonathan/campaign-runner/internal/metrics"
	"github.com/jonathan/campaign-runner/internal/phone"
	"github.com/jonathan/campaign-runner/internal/transcripts"
	"github.com/jonathan/campaign-runner/internal/types"
)

// Initiator submits one outbound call.
type Initiator interface {
	Initiate(ctx context.Context, req types.CallRequest) types.CallResponse
}

// Waiter blocks until a transcript for a call appears or its budget runs out.
type Waiter interface {
	Wait(ctx context.Context, call transcripts.CallIdentity) transcripts.PollResult
}

// ContentFetcher renders the conversation behind a transcript URL. An empty
// string means nothing could be read.
type ContentFetcher interface {
	Conversation(ctx context.Context, transcriptURL string) string
}

// Processor turns one contact into one result record.
type Processor struct {
	Caller  Initiator
	Waiter  Waiter
	Content ContentFetcher

	AssistantID   string
	AssistantName string
	FromNumber    string

	// SkipTranscript disables transcript waiting. A successful submission
	// then always ends as no_answer.
	SkipTranscript bool

	Metrics *metrics.Metrics
	Logger  logging.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Process never fails: every error along the way degrades the record instead
// of dropping it, and a panic becomes a failed record for the same contact.
func (p *Processor) Process(ctx context.Context, c types.Contact) (result types.ResultRecord) {
	logger := p.logger().With(logging.Int("contact", c.Index), logging.String("name", c.Name))
	done := p.Metrics.ContactStarted()
	defer done()

	var callID string
	defer func() {
		if r := recover(); r != nil {
			logger.Error("contact processing panicked", fmt.Errorf("panic: %v", r))
			result = types.FailedResult(c, callID)
		}
		p.Metrics.RecordResult(string(result.CallStatus))
	}()

	number := phone.Normalize(c.Number)
	logger.Info("processing contact", logging.String("phone", number))

	// The start time must precede submission so that a transcript created
	// during the request round-trip still counts as after the start.
	startedAt := p.now()

	resp := p.Caller.Initiate(ctx, types.CallRequest{
		PhoneNumber:   number,
		AssistantID:   p.AssistantID,
		AssistantName: p.AssistantName,
		FromNumber:    p.FromNumber,
		CalleeInfo:    map[string]string{"name": c.Name},
	})
	p.Metrics.RecordCall(resp.Success)
	callID = resp.CallID

	if !resp.Success {
		logger.Warn("call failed", logging.String("error", resp.Error))
		return types.FailedResult(c, callID)
	}

	result = types.ResultRecord{
		Index:      c.Index,
		Name:       c.Name,
		Number:     c.Number,
		CallID:     callID,
		CallStatus: types.StatusNoAnswer,
	}

	if p.SkipTranscript || p.Waiter == nil {
		logger.Info("call submitted, transcript wait skipped", logging.String("call_id", callID))
		return result
	}

	found := p.Waiter.Wait(ctx, transcripts.CallIdentity{
		CallID:      callID,
		PhoneNumber: number,
		StartedAt:   startedAt,
	})
	if !found.Found() {
		return result
	}

	p.Metrics.ObserveTranscriptWait(p.now().Sub(startedAt))
	if url := found.Record.TranscriptURL; url != "" && p.Content != nil {
		result.Transcript = p.Content.Conversation(ctx, url)
	}
	result.CallStatus = types.StatusCompleted
	logger.Info("transcript matched",
		logging.String("call_id", callID), logging.String("match", string(found.Kind)),
		logging.Int("chars", len(result.Transcript)))
	return result
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Processor) logger() logging.Logger {
	if p.Logger == nil {
		return logging.Nop()
	}
	return p.Logger
}
