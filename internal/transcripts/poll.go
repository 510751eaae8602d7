package transcripts

import (
	"context"
	"time"

	"github.com/jonathan/campaign-runner/internal/logging"
	"github.com/jonathan/campaign-runner/internal/types"
)

// Default poll budget.
const (
	DefaultMaxAttempts = 30
	DefaultInterval    = 5 * time.Second
)

// Lister returns the transcripts currently known to the provider. An empty
// result is ambiguous between "none yet" and "fetch failed".
type Lister interface {
	List(ctx context.Context) []types.TranscriptRecord
}

// Poller repeatedly lists and matches transcripts at a fixed interval.
type Poller struct {
	Source      Lister
	Matcher     Matcher
	MaxAttempts int
	Interval    time.Duration
	Logger      logging.Logger
	// OnAttempt, if set, is called once per listing fetch.
	OnAttempt func(attempt int)
}

// PollResult describes how a wait ended.
type PollResult struct {
	Record   *types.TranscriptRecord
	Kind     MatchKind
	Attempts int
}

// Found reports whether a transcript matched.
func (r PollResult) Found() bool {
	return r.Record != nil
}

// Wait blocks until a transcript for call matches or the attempt budget is
// spent. Running out of attempts is not an error: it is the signal that the
// call most likely never connected. There is no sleep after the final
// attempt. A done ctx ends the wait early with whatever was found so far.
func (p *Poller) Wait(ctx context.Context, call CallIdentity) PollResult {
	logger := p.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	logger.Info("waiting for transcript",
		logging.String("call_id", call.CallID), logging.String("phone", call.PhoneNumber))

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if p.OnAttempt != nil {
			p.OnAttempt(attempt)
		}

		records := p.Source.List(ctx)
		if rec, kind := p.Matcher.Match(call, records); rec != nil {
			logger.Info("transcript found",
				logging.Int("attempt", attempt), logging.String("match", string(kind)))
			return PollResult{Record: rec, Kind: kind, Attempts: attempt}
		}

		if attempt == maxAttempts {
			break
		}

		logger.Debug("transcript not found yet",
			logging.Int("attempt", attempt), logging.Int("max_attempts", maxAttempts),
			logging.Duration("wait", p.Interval))

		if err := sleep(ctx, p.Interval); err != nil {
			logger.Warn("transcript wait interrupted", logging.Int("attempt", attempt))
			return PollResult{Attempts: attempt}
		}
	}

	logger.Info("transcript not found, call may not have connected",
		logging.Int("attempts", maxAttempts))
	return PollResult{Attempts: maxAttempts}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
