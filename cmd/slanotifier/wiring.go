package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	httpAdapter "github.com/lorrc/sla-notifier/internal/adapters/primary/http"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/email"
	natsAdapter "github.com/lorrc/sla-notifier/internal/adapters/secondary/nats"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/postgres"
	redisAdapter "github.com/lorrc/sla-notifier/internal/adapters/secondary/redis"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/report"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/storage"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/lorrc/sla-notifier/internal/core/services"
	"github.com/lorrc/sla-notifier/internal/infrastructure/clock"
)

// stack is a fully wired pipeline plus what serve needs to expose it.
type stack struct {
	clock      ports.Clock
	enrichment *services.EnrichmentService
	pipeline   *services.PipelineService
	pool       *pgxpool.Pool
	checks     map[string]httpAdapter.HealthChecker
	closers    []func()
}

// Close releases connections in reverse order of creation.
func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func (a *app) newEnrichment() *services.EnrichmentService {
	return services.NewEnrichmentService(a.rules.Tables(), a.rules.ColumnMap(), a.cfg.Location(), a.logger)
}

// buildStack connects every configured backend. extra broadcasters receive
// run events alongside NATS.
func (a *app) buildStack(ctx context.Context, extra ...ports.EventBroadcaster) (*stack, error) {
	cfg := a.cfg
	logger := a.logger

	s := &stack{
		clock:      clock.NewReal(cfg.Location()),
		enrichment: a.newEnrichment(),
		checks:     make(map[string]httpAdapter.HealthChecker),
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	s.closers = append(s.closers, pool.Close)
	s.checks["database"] = pool
	logger.Info("database connection established")

	txManager := postgres.NewTransactionManager(pool)
	dispatchLog := postgres.NewDispatchRepository(pool, txManager)
	runRepo := postgres.NewRunRepository(pool)

	var notifier ports.Notifier
	if cfg.Mail.DryRun {
		logger.Warn("mail dry run enabled, notifications are logged instead of sent")
		notifier = email.NewLogNotifier(logger)
	} else {
		notifier = email.NewSMTPNotifier(cfg.Mail, logger)
	}

	var locker ports.RunLocker
	if cfg.Redis.Enabled {
		client := redisAdapter.NewClient(ctx, cfg.Redis, logger)
		s.closers = append(s.closers, func() { _ = client.Close() })
		s.checks["redis"] = httpAdapter.HealthCheckFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		locker = redisAdapter.NewRunLock(client, cfg.Redis.LockKey, logger)
	}

	var bucket *storage.Bucket
	if cfg.Storage.Enabled {
		mc, err := storage.NewClient(cfg.Storage)
		if err != nil {
			s.Close()
			return nil, err
		}
		bucket = storage.NewBucket(mc, cfg.Storage.Bucket)
	}

	var source ports.SnapshotSource
	switch {
	case cfg.Snapshot.Source == "bucket":
		source = snapshot.NewBucketSource(bucket, cfg.Storage.SnapshotPrefix, s.clock, logger)
	case cfg.Snapshot.Path != "":
		source = snapshot.NewFileSource(cfg.Snapshot.Path, s.clock, logger)
	default:
		source = snapshot.NewDirectorySource(cfg.Snapshot.Dir, s.clock, logger)
	}

	var uploader report.Uploader
	if cfg.Report.Upload && bucket != nil {
		uploader = bucket
	}
	reports := report.NewExcelWriter(cfg.Report.Dir, uploader, cfg.Storage.ReportPrefix, logger)

	broadcasters := append([]ports.EventBroadcaster{}, extra...)
	if cfg.NATS.Enabled {
		conn, err := natsAdapter.Connect(cfg.NATS, logger)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { _ = conn.Drain() })
		s.checks["nats"] = httpAdapter.HealthCheckFunc(func(context.Context) error {
			if !conn.IsConnected() {
				return fmt.Errorf("nats status %s", conn.Status())
			}
			return nil
		})
		broadcasters = append(broadcasters, natsAdapter.NewPublisher(conn, cfg.NATS.SubjectPrefix, logger))
	}

	assembler := services.NewNotificationAssembler(a.rules.Tables(), services.AssemblerConfig{
		VendorRecipient: cfg.Mail.VendorRecipient,
		VendorGreeting:  cfg.Mail.VendorGreeting,
		VendorSubject:   cfg.Mail.VendorSubject,
		InternalSubject: cfg.Mail.InternalSubject,
	}, logger)

	s.pipeline = services.NewPipelineService(services.PipelineDeps{
		Source:       source,
		Enricher:     s.enrichment,
		Assembler:    assembler,
		Notifier:     notifier,
		DispatchLog:  dispatchLog,
		Runs:         runRepo,
		Reports:      reports,
		Locker:       locker,
		Broadcasters: broadcasters,
		Clock:        s.clock,
	}, services.PipelineConfig{LockTTL: cfg.Pipeline.LockTTL}, logger)

	return s, nil
}
