package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

// RunRepository stores run summaries as JSON documents.
type RunRepository struct {
	pool *pgxpool.Pool
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new run repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Save upserts the summary keyed by run ID.
func (r *RunRepository) Save(ctx context.Context, summary *domain.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}

	status := "COMPLETED"
	if summary.Error != "" {
		status = "FAILED"
	}

	_, err = GetDBTX(ctx, r.pool).Exec(ctx, `
INSERT INTO pipeline_runs (run_id, started_at, finished_at, status, summary)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (run_id) DO UPDATE
SET finished_at = EXCLUDED.finished_at, status = EXCLUDED.status, summary = EXCLUDED.summary`,
		summary.RunID, summary.StartedAt, summary.FinishedAt, status, payload,
	)
	return err
}

// Latest returns the most recently started run.
func (r *RunRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	var payload []byte
	err := GetDBTX(ctx, r.pool).QueryRow(ctx,
		`SELECT summary FROM pipeline_runs ORDER BY started_at DESC LIMIT 1`,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRunNotFound
		}
		return nil, err
	}

	var summary domain.RunSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("unmarshal run summary: %w", err)
	}
	return &summary, nil
}
