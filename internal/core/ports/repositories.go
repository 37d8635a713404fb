package ports

import (
	"context"
	"time"

	"github.com/lorrc/sla-notifier/internal/core/domain"
)

// ListDispatchesParams filters dispatch log queries.
type ListDispatchesParams struct {
	Protocol *string
	Category *domain.DispatchCategory
	Since    *time.Time
	Limit    int32
	Offset   int32
}

// DispatchLog is the append-only record of notifications judged sent.
type DispatchLog interface {
	// Record appends one row per record. Records get their ID assigned.
	Record(ctx context.Context, records []domain.DispatchRecord) error
	List(ctx context.Context, params ListDispatchesParams) ([]*domain.DispatchRecord, error)
}

// RunRepository keeps the summary of every completed or failed run.
type RunRepository interface {
	Save(ctx context.Context, summary *domain.RunSummary) error
	Latest(ctx context.Context) (*domain.RunSummary, error)
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
