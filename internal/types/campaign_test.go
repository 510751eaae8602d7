package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallStatus_Valid(t *testing.T) {
	for _, s := range AllStatuses {
		assert.True(t, s.Valid(), "status %q should be valid", s)
	}
	assert.False(t, CallStatus("busy").Valid())
	assert.False(t, CallStatus("").Valid())
}

func TestCallRequest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		request CallRequest
		wantErr bool
	}{
		{
			name: "valid request",
			request: CallRequest{
				PhoneNumber: "+919867764589",
				AssistantID: "asst-1",
				FromNumber:  "+13157918262",
			},
		},
		{
			name: "missing plus",
			request: CallRequest{
				PhoneNumber: "919867764589",
				AssistantID: "asst-1",
				FromNumber:  "+13157918262",
			},
			wantErr: true,
		},
		{
			name: "bare plus",
			request: CallRequest{
				PhoneNumber: "+",
				AssistantID: "asst-1",
				FromNumber:  "+13157918262",
			},
			wantErr: true,
		},
		{
			name: "missing assistant",
			request: CallRequest{
				PhoneNumber: "+919867764589",
				FromNumber:  "+13157918262",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTranscriptRecord_UnmarshalLenientTimestamp(t *testing.T) {
	data := `[
		{"call_id": "c1", "phone_number": "+919867764589", "created_at": "2025-01-10T10:00:00Z"},
		{"call_id": null, "phone_number": "+919867764589", "created_at": "2025-01-10T10:00:00.123456+05:30"},
		{"phone_number": "+919867764589", "created_at": "not a time"},
		{"phone_number": "+919867764589", "created_at": 12345},
		{"phone_number": "+919867764589"}
	]`

	var records []TranscriptRecord
	require.NoError(t, json.Unmarshal([]byte(data), &records))
	require.Len(t, records, 5)

	assert.Equal(t, "c1", records[0].CallID)
	assert.True(t, records[0].CreatedAt.Equal(time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)))

	assert.Empty(t, records[1].CallID)
	assert.True(t, records[1].CreatedAt.Equal(time.Date(2025, 1, 10, 4, 30, 0, 123456000, time.UTC)))

	assert.True(t, records[2].CreatedAt.IsZero())
	assert.True(t, records[3].CreatedAt.IsZero())
	assert.True(t, records[4].CreatedAt.IsZero())
}

func TestParseTimestamp_RejectsNaive(t *testing.T) {
	_, ok := ParseTimestamp("2025-01-10T10:00:00")
	assert.False(t, ok)
}

func TestFailedResult(t *testing.T) {
	c := Contact{Index: 3, Name: "Priya", Number: "9876543210"}
	r := FailedResult(c, "c9")

	assert.Equal(t, 3, r.Index)
	assert.Equal(t, "Priya", r.Name)
	assert.Equal(t, "9876543210", r.Number)
	assert.Equal(t, "c9", r.CallID)
	assert.Equal(t, StatusFailed, r.CallStatus)
	assert.Empty(t, r.Transcript)
}
