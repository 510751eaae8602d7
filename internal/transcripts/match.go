package transcripts

import (
	"time"

	"github.com/jonathan/campaign-runner/internal/phone"
	"github.com/jonathan/campaign-runner/internal/types"
)

// MatchPolicy selects among several heuristic candidates.
type MatchPolicy int

const (
	// FirstSeen returns the first candidate in listing order. The provider
	// does not define that order, so with several transcripts from the same
	// number in the window the choice is nondeterministic.
	FirstSeen MatchPolicy = iota
	// EarliestAfterStart returns the candidate with the earliest created_at.
	EarliestAfterStart
)

// MatchKind records which tier produced a match.
type MatchKind string

// Match kinds
const (
	MatchNone      MatchKind = ""
	MatchCallID    MatchKind = "call_id"
	MatchHeuristic MatchKind = "phone_time"
)

// CallIdentity is everything the matcher knows about a submitted call.
type CallIdentity struct {
	CallID      string
	PhoneNumber string
	StartedAt   time.Time
}

// Matcher finds the transcript produced by a call.
type Matcher struct {
	Policy MatchPolicy
}

// Match applies the two tiers in order and returns the first hit.
//
// Tier 1 is an exact call_id match. Tier 2, used only when tier 1 finds
// nothing, matches on the destination number and a created_at strictly after
// the call's start time. Records with a missing or unparsable created_at never
// match through tier 2.
func (m Matcher) Match(call CallIdentity, records []types.TranscriptRecord) (*types.TranscriptRecord, MatchKind) {
	if rec := matchByCallID(call.CallID, records); rec != nil {
		return rec, MatchCallID
	}
	if rec := m.matchByPhone(call.PhoneNumber, call.StartedAt, records); rec != nil {
		return rec, MatchHeuristic
	}
	return nil, MatchNone
}

// matchByCallID never matches an empty id; a call whose id was not returned
// by the provider can only be found through the heuristic tier.
func matchByCallID(callID string, records []types.TranscriptRecord) *types.TranscriptRecord {
	if callID == "" {
		return nil
	}
	for i := range records {
		if records[i].CallID == callID {
			return &records[i]
		}
	}
	return nil
}

func (m Matcher) matchByPhone(number string, start time.Time, records []types.TranscriptRecord) *types.TranscriptRecord {
	want := phone.WithPlus(number)

	var best *types.TranscriptRecord
	for i := range records {
		rec := &records[i]
		if rec.PhoneNumber != want || rec.CreatedAt.IsZero() {
			continue
		}
		if !rec.CreatedAt.After(start) {
			continue
		}
		if m.Policy == FirstSeen {
			return rec
		}
		if best == nil || rec.CreatedAt.Before(best.CreatedAt.Time) {
			best = rec
		}
	}
	return best
}
