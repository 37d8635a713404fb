package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/lorrc/sla-notifier/internal/adapters/primary/http"
	wsAdapter "github.com/lorrc/sla-notifier/internal/adapters/primary/websocket"
	"github.com/lorrc/sla-notifier/internal/adapters/secondary/snapshot"
	"github.com/lorrc/sla-notifier/internal/auth"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the ops API and run the pipeline on a schedule",
		Long: `Serve health checks, Prometheus metrics and the authenticated ops API
(trigger runs, browse the dispatch log, preview classifications, live run
events over websocket). When pipeline.interval is set the pipeline also runs
periodically.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	logger := a.logger

	logger.Info("starting service",
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
		"config", cfg.String(),
	)

	hub := wsAdapter.NewHub(logger)
	go hub.Run(ctx)

	s, err := a.buildStack(ctx, hub)
	if err != nil {
		return err
	}
	defer s.Close()

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	errorHandler := httpAdapter.NewErrorHandler(logger)

	router := httpAdapter.NewRouter(ctx, cfg, tokens, httpAdapter.Handlers{
		Health:     httpAdapter.NewHealthHandler(cfg.App.Version, s.checks),
		Runs:       httpAdapter.NewRunsHandler(s.pipeline, cfg.Location(), errorHandler, logger),
		Dispatches: httpAdapter.NewDispatchHandler(s.pipeline, cfg.Location(), errorHandler, logger),
		Classify:   httpAdapter.NewClassifyHandler(s.enrichment, snapshot.Read, s.clock, errorHandler, logger),
		WebSocket:  httpAdapter.NewWebSocketHandler(hub, tokens, cfg, logger),
	}, logger)

	if cfg.Pipeline.Interval > 0 {
		go schedule(ctx, s.pipeline, cfg.Pipeline.Interval, logger)
	}

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}

// schedule runs the pipeline every interval until ctx is done. A run still
// holding the lock makes the tick a no-op.
func schedule(ctx context.Context, pipeline ports.PipelineService, interval time.Duration, logger *slog.Logger) {
	logger.Info("periodic runs enabled", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			summary, err := pipeline.Run(ctx, ports.RunParams{})
			switch {
			case errors.Is(err, apperrors.ErrRunInProgress):
				logger.Info("scheduled run skipped, another run is in progress")
			case err != nil:
				logger.Error("scheduled run failed", "error", err)
			default:
				logger.Info("scheduled run finished",
					"run_id", summary.RunID,
					"notifications_sent", summary.NotificationsSent,
				)
			}
		}
	}
}
