package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	mw "github.com/lorrc/sla-notifier/internal/adapters/primary/http/middleware"
	"github.com/lorrc/sla-notifier/internal/config"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Health     *HealthHandler
	Runs       *RunsHandler
	Dispatches *DispatchHandler
	Classify   *ClassifyHandler
	WebSocket  *WebSocketHandler
}

// NewRouter builds the ops API. Background rate limiter cleanup stops with ctx.
func NewRouter(
	ctx context.Context,
	cfg *config.Config,
	tokens mw.TokenValidator,
	h Handlers,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(logger))
	r.Use(mw.RecoveryLogger(logger))
	r.Use(mw.Metrics)
	r.Use(cors.Handler(corsOptions(cfg)))

	if cfg.RateLimit.Enabled {
		general := mw.NewRateLimiter(ctx, mw.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.BurstSize,
			CleanupInterval:   time.Minute,
			TTL:               3 * time.Minute,
		})
		r.Use(general.Middleware)
	}

	errs := NewErrorHandler(logger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errs.Handle(w, r, apperrors.NewNotFoundError(nil, "Resource not found"))
	})

	r.Get("/health", h.Health.HandleHealth)
	r.Get("/health/live", h.Health.HandleLiveness)
	r.Get("/health/ready", h.Health.HandleReadiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// The websocket handshake authenticates with a query token.
		r.Get("/ws", h.WebSocket.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(mw.JWTMiddleware(tokens))

			var runLimits []func(http.Handler) http.Handler
			if cfg.RateLimit.Enabled && cfg.RateLimit.RunRPS > 0 {
				runs := mw.NewOperatorRateLimiter(ctx, mw.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimit.RunRPS,
					BurstSize:         cfg.RateLimit.RunBurst,
					CleanupInterval:   time.Minute,
					TTL:               10 * time.Minute,
				})
				runLimits = append(runLimits, runs.Middleware)
			}
			r.Route("/runs", func(r chi.Router) {
				h.Runs.RegisterRoutes(r, runLimits...)
			})
			r.Route("/dispatches", h.Dispatches.RegisterRoutes)
			r.Route("/classify", h.Classify.RegisterRoutes)
		})
	})

	return r
}

func corsOptions(cfg *config.Config) cors.Options {
	origins := []string{"https://*", "http://*"}
	if !cfg.IsDevelopment() {
		origins = make([]string, 0, len(cfg.WebSocket.AllowedOrigins))
		for _, o := range cfg.WebSocket.AllowedOrigins {
			origins = append(origins, "https://"+o)
		}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", mw.RequestIDHeader},
		ExposedHeaders:   []string{mw.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}
}
