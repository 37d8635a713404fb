package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/lorrc/sla-notifier/internal/infrastructure/logging"
	"github.com/lorrc/sla-notifier/internal/infrastructure/metrics"
)

const (
	defaultLockTTL       = 10 * time.Minute
	defaultDispatchLimit = 50
	maxDispatchLimit     = 500
)

// PipelineDeps wires the collaborators of a pipeline run. Reports, Runs,
// Locker and Broadcasters are optional.
type PipelineDeps struct {
	Source       ports.SnapshotSource
	Enricher     ports.EnrichmentService
	Assembler    ports.NotificationAssembler
	Notifier     ports.Notifier
	DispatchLog  ports.DispatchLog
	Runs         ports.RunRepository
	Reports      ports.ReportWriter
	Locker       ports.RunLocker
	Broadcasters []ports.EventBroadcaster
	Clock        ports.Clock
}

// PipelineConfig tunes a pipeline service.
type PipelineConfig struct {
	LockTTL time.Duration
}

// PipelineService runs the snapshot through enrichment, partitioning,
// reporting and notification, one run at a time.
type PipelineService struct {
	deps   PipelineDeps
	cfg    PipelineConfig
	logger *slog.Logger
}

var _ ports.PipelineService = (*PipelineService)(nil)

// NewPipelineService creates a new pipeline service. Without a Locker, runs
// are serialized within this process only.
func NewPipelineService(deps PipelineDeps, cfg PipelineConfig, logger *slog.Logger) *PipelineService {
	if deps.Locker == nil {
		deps.Locker = &localLocker{}
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &PipelineService{
		deps:   deps,
		cfg:    cfg,
		logger: logger.With("component", "pipeline"),
	}
}

// Run executes one full pipeline run. The returned summary is non-nil for
// every run that acquired the lock, including failed ones.
func (s *PipelineService) Run(ctx context.Context, params ports.RunParams) (*domain.RunSummary, error) {
	runID := uuid.New()
	startedAt := s.deps.Clock.Now()
	now := startedAt
	if params.Now != nil {
		now = *params.Now
	}

	release, err := s.deps.Locker.Acquire(ctx, runID, s.cfg.LockTTL)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.logger.Warn("failed to release run lock", "run_id", runID, "error", err)
		}
	}()

	ctx = logging.WithRunID(ctx, runID.String())
	summary := &domain.RunSummary{
		RunID:     runID,
		StartedAt: startedAt,
		Now:       now,
		DryRun:    params.DryRun,
	}

	s.logger.InfoContext(ctx, "pipeline run started", "now", now, "dry_run", params.DryRun)
	s.broadcast(ctx, domain.Event{Type: domain.EventRunStarted, RunID: runID})

	if err := s.execute(ctx, params, summary); err != nil {
		return summary, s.fail(ctx, summary, err)
	}

	s.finish(ctx, summary)
	return summary, nil
}

func (s *PipelineService) execute(ctx context.Context, params ports.RunParams, summary *domain.RunSummary) error {
	source := s.deps.Source
	if params.Source != nil {
		source = params.Source
	}

	snap, err := source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	summary.Snapshot = snap.Name

	result, err := s.deps.Enricher.Classify(ctx, snap.Records, summary.Now)
	if err != nil {
		return err
	}

	summary.Total = len(result.Enriched)
	summary.Cohorts = result.Cohorts.Sizes()
	summary.OverdueVendor = len(result.Cohorts.OverdueVendor())
	if len(result.UnmappedStatuses) > 0 {
		summary.UnmappedStatuses = result.UnmappedStatuses
	}
	if len(result.UnmappedCategories) > 0 {
		summary.UnmappedCategories = result.UnmappedCategories
	}

	if s.deps.Reports != nil {
		path, err := s.deps.Reports.Write(ctx, ports.Report{
			RunID:    summary.RunID,
			Now:      summary.Now,
			Enriched: result.Enriched,
			Cohorts:  result.Cohorts,
		})
		if err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		summary.ReportPath = path
	}

	notifications := s.deps.Assembler.Assemble(result.Cohorts)
	if params.DryRun {
		for _, n := range notifications {
			s.logger.InfoContext(ctx, "dry run, notification not sent",
				"recipient", n.Recipient,
				"category", n.Category,
				"items", len(n.Items),
			)
		}
		return nil
	}

	return s.dispatch(ctx, summary, notifications)
}

// dispatch sends each notification and records it once sent. A failed send
// is counted and skipped; a failed dispatch log write aborts the run.
func (s *PipelineService) dispatch(ctx context.Context, summary *domain.RunSummary, notifications []domain.Notification) error {
	for _, n := range notifications {
		category := string(n.Category)
		start := time.Now()

		err := s.deps.Notifier.Send(ctx, n)
		metrics.NotificationSendDuration.WithLabelValues(category).Observe(time.Since(start).Seconds())
		if err != nil {
			summary.NotificationsFailed++
			metrics.NotificationsTotal.WithLabelValues(category, "failed").Inc()
			s.logger.ErrorContext(ctx, "failed to send notification",
				"recipient", n.Recipient,
				"category", n.Category,
				"error", err,
			)
			continue
		}
		summary.NotificationsSent++
		metrics.NotificationsTotal.WithLabelValues(category, "sent").Inc()

		records := domain.DispatchRecordsFor(summary.RunID, n, s.deps.Clock.Now())
		if err := s.deps.DispatchLog.Record(ctx, records); err != nil {
			return fmt.Errorf("record dispatch to %s: %w", n.Recipient, err)
		}
		summary.DispatchRecords += len(records)
		metrics.DispatchRecordsTotal.Add(float64(len(records)))
	}
	return nil
}

func (s *PipelineService) finish(ctx context.Context, summary *domain.RunSummary) {
	summary.FinishedAt = s.deps.Clock.Now()
	s.save(ctx, summary)

	metrics.RunsTotal.WithLabelValues("completed").Inc()
	metrics.RunDuration.Observe(summary.FinishedAt.Sub(summary.StartedAt).Seconds())
	metrics.LastRunTimestamp.Set(float64(summary.FinishedAt.Unix()))
	for ownership, n := range summary.Cohorts {
		metrics.CohortSize.WithLabelValues(string(ownership)).Set(float64(n))
	}
	metrics.OverdueVendorTickets.Set(float64(summary.OverdueVendor))

	s.logger.InfoContext(ctx, "pipeline run completed",
		"snapshot", summary.Snapshot,
		"tickets", summary.Total,
		"overdue_vendor", summary.OverdueVendor,
		"sent", summary.NotificationsSent,
		"failed", summary.NotificationsFailed,
		"duration_ms", summary.FinishedAt.Sub(summary.StartedAt).Milliseconds(),
	)
	s.broadcast(ctx, domain.Event{Type: domain.EventRunCompleted, RunID: summary.RunID, Payload: summary})
}

func (s *PipelineService) fail(ctx context.Context, summary *domain.RunSummary, err error) error {
	summary.FinishedAt = s.deps.Clock.Now()
	summary.Error = err.Error()
	s.save(ctx, summary)

	metrics.RunsTotal.WithLabelValues("failed").Inc()
	s.logger.ErrorContext(ctx, "pipeline run failed", "error", err)
	s.broadcast(ctx, domain.Event{Type: domain.EventRunFailed, RunID: summary.RunID, Payload: summary})

	return err
}

func (s *PipelineService) save(ctx context.Context, summary *domain.RunSummary) {
	if s.deps.Runs == nil {
		return
	}
	if err := s.deps.Runs.Save(context.WithoutCancel(ctx), summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to save run summary", "error", err)
	}
}

func (s *PipelineService) broadcast(ctx context.Context, event domain.Event) {
	for _, b := range s.deps.Broadcasters {
		if err := b.Broadcast(event); err != nil {
			s.logger.WarnContext(ctx, "failed to broadcast run event",
				"event_type", event.Type,
				"error", err,
			)
		}
	}
}

// Latest returns the most recent run summary.
func (s *PipelineService) Latest(ctx context.Context) (*domain.RunSummary, error) {
	if s.deps.Runs == nil {
		return nil, apperrors.ErrRunNotFound
	}
	return s.deps.Runs.Latest(ctx)
}

// ListDispatches pages through the dispatch log, newest first.
func (s *PipelineService) ListDispatches(ctx context.Context, params ports.ListDispatchesParams) ([]*domain.DispatchRecord, error) {
	if params.Limit <= 0 {
		params.Limit = defaultDispatchLimit
	}
	if params.Limit > maxDispatchLimit {
		params.Limit = maxDispatchLimit
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.deps.DispatchLog.List(ctx, params)
}

// localLocker serializes runs within one process.
type localLocker struct {
	mu sync.Mutex
}

func (l *localLocker) Acquire(_ context.Context, _ uuid.UUID, _ time.Duration) (func(context.Context) error, error) {
	if !l.mu.TryLock() {
		return nil, apperrors.ErrRunInProgress
	}
	var once sync.Once
	return func(context.Context) error {
		once.Do(l.mu.Unlock)
		return nil
	}, nil
}
