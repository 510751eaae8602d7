package db

import (
	"time"

	"github.com/google/uuid"
)

// Campaign status values
const (
	CampaignStatusRunning     = "running"
	CampaignStatusCompleted   = "completed"
	CampaignStatusInterrupted = "interrupted"
)

// Campaign represents a campaign run record
type Campaign struct {
	ID          uuid.UUID  `json:"id"`
	AssistantID string     `json:"assistant_id"`
	FromNumber  string     `json:"from_number"`
	InputPath   string     `json:"input_path"`
	Status      string     `json:"status"`
	Total       int        `json:"total"`
	Completed   int        `json:"completed"`
	NoAnswer    int        `json:"no_answer"`
	Failed      int        `json:"failed"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CampaignInput is the data needed to register a campaign before it runs.
type CampaignInput struct {
	ID          uuid.UUID
	AssistantID string
	FromNumber  string
	InputPath   string
	Total       int
}
