// Package types provides type definitions for structured data used throughout the campaign runner.
package types

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// CallStatus is the terminal outcome recorded for one contact.
type CallStatus string

// Call status constants
const (
	// StatusCompleted means a transcript was found for the call
	StatusCompleted CallStatus = "completed"
	// StatusNoAnswer means the call was submitted but no transcript matched
	StatusNoAnswer CallStatus = "no_answer"
	// StatusFailed means the call submission itself failed
	StatusFailed CallStatus = "failed"
)

// AllStatuses lists the statuses in report order.
var AllStatuses = []CallStatus{StatusCompleted, StatusNoAnswer, StatusFailed}

// Valid reports whether s is one of the defined statuses.
func (s CallStatus) Valid() bool {
	switch s {
	case StatusCompleted, StatusNoAnswer, StatusFailed:
		return true
	}
	return false
}

// Contact is one row of the input file. Contacts are identified by their
// position in the input list; numbers are not guaranteed unique.
type Contact struct {
	Index  int    `json:"-"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// CallRequest is the body sent to the call-initiation endpoint.
type CallRequest struct {
	PhoneNumber   string            `json:"phone_number" validate:"required,startswith=+,min=2"`
	AssistantID   string            `json:"assistant_id" validate:"required"`
	AssistantName string            `json:"assistant_name"`
	FromNumber    string            `json:"from_number" validate:"required"`
	CalleeInfo    map[string]string `json:"callee_info"`
}

// Validate validates the CallRequest using the validator.
func (r *CallRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// CallResponse is the outcome of one call-initiation attempt.
type CallResponse struct {
	Success bool   `json:"success"`
	CallID  string `json:"call_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TranscriptRecord is a transcript entry owned by the provider.
type TranscriptRecord struct {
	ID            string    `json:"id,omitempty"`
	UserUID       string    `json:"user_uid,omitempty"`
	CallID        string    `json:"call_id,omitempty"`
	PhoneNumber   string    `json:"phone_number"`
	CallDate      string    `json:"call_date,omitempty"`
	CreatedAt     Timestamp `json:"created_at"`
	TranscriptURL string    `json:"transcript_url,omitempty"`
}

// Timestamp is a lenient RFC 3339 time. A missing, null or unparsable value
// decodes to the zero time instead of failing the surrounding document, so a
// single bad record cannot hide the rest of a transcript listing.
type Timestamp struct {
	time.Time
}

// timestampLayouts are tried in order. Only offset-qualified forms are
// accepted; a naive timestamp cannot be compared against a UTC start time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// ParseTimestamp parses s using the accepted layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, ok := ParseTimestamp(s); ok {
		t.Time = parsed
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// ResultRecord is the final output unit for one contact.
type ResultRecord struct {
	Index      int        `json:"-"`
	Name       string     `json:"name"`
	Number     string     `json:"number"`
	CallID     string     `json:"call_id"`
	CallStatus CallStatus `json:"call_status"`
	Transcript string     `json:"transcript"`
}

// FailedResult returns the degraded record used when processing a contact
// could not complete. The contact's identity is always preserved.
func FailedResult(c Contact, callID string) ResultRecord {
	return ResultRecord{
		Index:      c.Index,
		Name:       c.Name,
		Number:     c.Number,
		CallID:     callID,
		CallStatus: StatusFailed,
	}
}
