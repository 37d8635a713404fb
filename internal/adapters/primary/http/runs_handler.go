package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	mw "github.com/lorrc/sla-notifier/internal/adapters/primary/http/middleware"
	"github.com/lorrc/sla-notifier/internal/adapters/primary/validation"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

// RunsHandler triggers pipeline runs and reports on the latest one.
type RunsHandler struct {
	pipeline     ports.PipelineService
	loc          *time.Location
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewRunsHandler creates a runs handler. Dates in requests are read in loc.
func NewRunsHandler(
	pipeline ports.PipelineService,
	loc *time.Location,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *RunsHandler {
	return &RunsHandler{
		pipeline:     pipeline,
		loc:          loc,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "runs"),
	}
}

// RegisterRoutes sets up the routing for run endpoints. trigger wraps only
// the POST that starts a run.
func (h *RunsHandler) RegisterRoutes(r chi.Router, trigger ...func(http.Handler) http.Handler) {
	r.With(trigger...).Post("/", h.HandleTriggerRun)
	r.Get("/latest", h.HandleLatestRun)
}

// TriggerRunRequest is the optional JSON body of POST /runs.
type TriggerRunRequest struct {
	// Now pins the evaluation date (YYYY-MM-DD) instead of today.
	Now    string `json:"now,omitempty"`
	DryRun bool   `json:"dryRun,omitempty"`
}

// Validate validates the trigger run request
func (r *TriggerRunRequest) Validate() error {
	v := validation.NewValidator()
	v.Date("now", r.Now)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// HandleTriggerRun runs the pipeline synchronously and returns its summary.
func (h *RunsHandler) HandleTriggerRun(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[TriggerRunRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	params := ports.RunParams{DryRun: req.DryRun}
	if req.Now != "" {
		now, err := time.ParseInLocation(time.DateOnly, req.Now, h.loc)
		if HandleError(w, r, err, h.errorHandler) {
			return
		}
		params.Now = &now
	}

	h.logger.InfoContext(r.Context(), "run requested",
		"operator", mw.GetOperator(r.Context()),
		"now", req.Now,
		"dry_run", req.DryRun,
	)

	summary, err := h.pipeline.Run(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteCreated(w, summary)
}

// HandleLatestRun returns the summary of the most recent run.
func (h *RunsHandler) HandleLatestRun(w http.ResponseWriter, r *http.Request) {
	summary, err := h.pipeline.Latest(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, summary)
}
