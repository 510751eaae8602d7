package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/campaign-runner/internal/campaign"
	"github.com/jonathan/campaign-runner/internal/types"
)

// CreateCampaign inserts a running campaign record.
func (db *DB) CreateCampaign(ctx context.Context, in CampaignInput) error {
	if in.ID == uuid.Nil {
		return fmt.Errorf("campaign id is required")
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO campaigns (id, assistant_id, from_number, input_path, status, total)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		in.ID, in.AssistantID, in.FromNumber, in.InputPath, CampaignStatusRunning, in.Total,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// SaveResults stores every result of a finished campaign in one transaction.
// Saving the same campaign twice replaces the earlier rows.
func (db *DB) SaveResults(ctx context.Context, campaignID uuid.UUID, results []types.ResultRecord) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, r := range results {
		batch.Queue(
			`INSERT INTO campaign_results (campaign_id, position, name, number, call_id, call_status, transcript)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (campaign_id, position) DO UPDATE
			 SET name = $3, number = $4, call_id = $5, call_status = $6, transcript = $7, created_at = NOW()`,
			campaignID, r.Index, r.Name, r.Number, r.CallID, string(r.CallStatus), r.Transcript,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save campaign results: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit campaign results: %w", err)
	}
	return nil
}

// CompleteCampaign records the final counts and status of a campaign.
func (db *DB) CompleteCampaign(ctx context.Context, campaignID uuid.UUID, status string, s campaign.Summary) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE campaigns
		 SET status = $1, total = $2, completed = $3, no_answer = $4, failed = $5, completed_at = NOW()
		 WHERE id = $6`,
		status, s.Total, s.Completed, s.NoAnswer, s.Failed, campaignID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %s not found", campaignID)
	}
	return nil
}

// GetCampaign retrieves a campaign by ID. Returns nil if it does not exist.
func (db *DB) GetCampaign(ctx context.Context, campaignID uuid.UUID) (*Campaign, error) {
	var c Campaign
	err := db.pool.QueryRow(ctx,
		`SELECT id, assistant_id, from_number, input_path, status, total, completed, no_answer, failed,
		        created_at, completed_at
		 FROM campaigns WHERE id = $1`,
		campaignID,
	).Scan(&c.ID, &c.AssistantID, &c.FromNumber, &c.InputPath, &c.Status, &c.Total,
		&c.Completed, &c.NoAnswer, &c.Failed, &c.CreatedAt, &c.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &c, nil
}

// ListResults returns a campaign's results in input order.
func (db *DB) ListResults(ctx context.Context, campaignID uuid.UUID) ([]types.ResultRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT position, name, number, call_id, call_status, transcript
		 FROM campaign_results WHERE campaign_id = $1 ORDER BY position`,
		campaignID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaign results: %w", err)
	}
	defer rows.Close()

	var results []types.ResultRecord
	for rows.Next() {
		var r types.ResultRecord
		var status string
		if err := rows.Scan(&r.Index, &r.Name, &r.Number, &r.CallID, &status, &r.Transcript); err != nil {
			return nil, fmt.Errorf("failed to scan campaign result: %w", err)
		}
		r.CallStatus = types.CallStatus(status)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaign results: %w", err)
	}
	return results, nil
}
