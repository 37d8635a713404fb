package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/sla-notifier/internal/core/domain"
)

// Clock supplies the evaluation instant for a run. Pure decision functions
// never read it; only the service edge does.
type Clock interface {
	Now() time.Time
}

// SnapshotSource delivers the latest ticket export.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*domain.Snapshot, error)
}

// Notifier delivers one assembled notification.
type Notifier interface {
	Send(ctx context.Context, n domain.Notification) error
}

// Report is everything the report writer needs from one run.
type Report struct {
	RunID    uuid.UUID
	Now      time.Time
	Enriched []domain.EnrichedTicket
	Cohorts  domain.Cohorts
}

// ReportWriter persists the run report and returns where it was written.
type ReportWriter interface {
	Write(ctx context.Context, report Report) (string, error)
}

// RunLocker guarantees a single pipeline run at a time across processes.
type RunLocker interface {
	// Acquire returns apperrors.ErrRunInProgress when another run holds the lock.
	Acquire(ctx context.Context, runID uuid.UUID, ttl time.Duration) (release func(context.Context) error, err error)
}

// EventBroadcaster pushes run events to interested listeners.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}

// ClassifyResult is the outcome of enriching and partitioning a record set.
type ClassifyResult struct {
	Now                time.Time
	Enriched           []domain.EnrichedTicket
	Cohorts            domain.Cohorts
	UnmappedStatuses   map[string]int
	UnmappedCategories map[string]int
}

// EnrichmentService turns a raw record set into enriched, partitioned tickets.
type EnrichmentService interface {
	Classify(ctx context.Context, records domain.RecordSet, now time.Time) (*ClassifyResult, error)
}

// NotificationAssembler builds message payloads from partitioned tickets.
type NotificationAssembler interface {
	Assemble(cohorts domain.Cohorts) []domain.Notification
}

// RunParams controls a single pipeline run.
type RunParams struct {
	// Now overrides the clock when set.
	Now *time.Time
	// Source overrides the configured snapshot source when set.
	Source SnapshotSource
	// DryRun skips sending and dispatch recording.
	DryRun bool
}

// PipelineService runs the end-to-end notification pipeline.
type PipelineService interface {
	Run(ctx context.Context, params RunParams) (*domain.RunSummary, error)
	Latest(ctx context.Context) (*domain.RunSummary, error)
	ListDispatches(ctx context.Context, params ListDispatchesParams) ([]*domain.DispatchRecord, error)
}
