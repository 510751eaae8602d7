// Package db provides PostgreSQL persistence for campaign runs and their
// results.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the campaign tables if they do not exist.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id            UUID PRIMARY KEY,
		assistant_id  TEXT NOT NULL,
		from_number   TEXT NOT NULL,
		input_path    TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'running',
		total         INTEGER NOT NULL DEFAULT 0,
		completed     INTEGER NOT NULL DEFAULT 0,
		no_answer     INTEGER NOT NULL DEFAULT 0,
		failed        INTEGER NOT NULL DEFAULT 0,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS campaign_results (
		campaign_id   UUID NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		name          TEXT NOT NULL DEFAULT '',
		number        TEXT NOT NULL DEFAULT '',
		call_id       TEXT NOT NULL DEFAULT '',
		call_status   TEXT NOT NULL,
		transcript    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (campaign_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaign_results_call_id ON campaign_results (call_id) WHERE call_id <> ''`,
}
