package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

// DispatchRepository persists the dispatch log. Rows are never updated or
// deleted.
type DispatchRepository struct {
	pool *pgxpool.Pool
	tx   *TransactionManager
}

var _ ports.DispatchLog = (*DispatchRepository)(nil)

// NewDispatchRepository creates a new dispatch log repository.
func NewDispatchRepository(pool *pgxpool.Pool, tx *TransactionManager) *DispatchRepository {
	return &DispatchRepository{pool: pool, tx: tx}
}

const insertDispatchSQL = `
INSERT INTO dispatch_log (run_id, protocol, sent_date, sent_time, sent_at, recipient, category)
VALUES ($1, $2, $3::date, $4::time, $5, $6, $7)
RETURNING id`

// Record appends every record in one transaction, so a notification is
// either fully logged or not at all.
func (r *DispatchRepository) Record(ctx context.Context, records []domain.DispatchRecord) error {
	if len(records) == 0 {
		return nil
	}

	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		q := GetDBTX(ctx, r.pool)
		for i := range records {
			rec := &records[i]
			err := q.QueryRow(ctx, insertDispatchSQL,
				rec.RunID,
				rec.Protocol,
				rec.SentDate(),
				rec.SentTime(),
				rec.SentAt,
				rec.Recipient,
				string(rec.Category),
			).Scan(&rec.ID)
			if err != nil {
				return fmt.Errorf("insert dispatch record %s: %w", rec.Protocol, err)
			}
		}
		return nil
	})
}

// List returns dispatch records newest first.
func (r *DispatchRepository) List(ctx context.Context, params ports.ListDispatchesParams) ([]*domain.DispatchRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if params.Protocol != nil {
		args = append(args, *params.Protocol)
		where = append(where, fmt.Sprintf("protocol = $%d", len(args)))
	}
	if params.Category != nil {
		args = append(args, string(*params.Category))
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if params.Since != nil {
		args = append(args, *params.Since)
		where = append(where, fmt.Sprintf("sent_at >= $%d", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT id, run_id, protocol, sent_at, recipient, category FROM dispatch_log")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	args = append(args, params.Limit, params.Offset)
	fmt.Fprintf(&sb, " ORDER BY sent_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := GetDBTX(ctx, r.pool).Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.DispatchRecord, error) {
		var rec domain.DispatchRecord
		var category string
		if err := row.Scan(&rec.ID, &rec.RunID, &rec.Protocol, &rec.SentAt, &rec.Recipient, &category); err != nil {
			return nil, err
		}
		rec.Category = domain.DispatchCategory(category)
		return &rec, nil
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}
