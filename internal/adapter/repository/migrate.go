package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS cases (
		case_id       TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		citation      TEXT NOT NULL DEFAULT '',
		court         TEXT NOT NULL DEFAULT '',
		jurisdiction  TEXT NOT NULL DEFAULT '',
		decision_date TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS opinions (
		opinion_id   BIGSERIAL PRIMARY KEY,
		case_id      TEXT NOT NULL REFERENCES cases(case_id) ON DELETE CASCADE,
		opinion_type TEXT NOT NULL DEFAULT 'unknown',
		text         TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chunks (
		chunk_id     TEXT PRIMARY KEY,
		case_id      TEXT NOT NULL REFERENCES cases(case_id) ON DELETE CASCADE,
		opinion_type TEXT NOT NULL DEFAULT 'unknown',
		position     INTEGER NOT NULL,
		text         TEXT NOT NULL,
		token_count  INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_opinions_case_id ON opinions(case_id)`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_case_id ON chunks(case_id)`,
	`CREATE INDEX IF NOT EXISTS idx_cases_court ON cases(court)`,
}

// Migrate applies the corpus schema. Statements are idempotent so repeated
// runs are safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
