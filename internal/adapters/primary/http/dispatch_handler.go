package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/sla-notifier/internal/adapters/primary/validation"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

const maxDispatchesPerPage = 200

// DispatchHandler exposes the dispatch log.
type DispatchHandler struct {
	pipeline     ports.PipelineService
	loc          *time.Location
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewDispatchHandler creates a new dispatch handler
func NewDispatchHandler(
	pipeline ports.PipelineService,
	loc *time.Location,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *DispatchHandler {
	return &DispatchHandler{
		pipeline:     pipeline,
		loc:          loc,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "dispatch"),
	}
}

// RegisterRoutes sets up the routing for dispatch endpoints.
func (h *DispatchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListDispatches)
}

// HandleListDispatches lists dispatch log rows, newest first.
// Query: protocol, category (FORNECEDOR|INTERNO), since, limit, offset.
func (h *DispatchHandler) HandleListDispatches(w http.ResponseWriter, r *http.Request) {
	page := validation.ParsePagination(r, maxDispatchesPerPage)

	v := validation.NewValidator()
	category := validation.ParseStringQueryParam(r, "category")
	if category != nil {
		v.OneOf("category", *category, []string{string(domain.CategoryVendor), string(domain.CategoryInternal)})
	}
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	since, err := validation.ParseTimeQueryParam(r, "since", h.loc)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	params := ports.ListDispatchesParams{
		Protocol: validation.ParseStringQueryParam(r, "protocol"),
		Since:    since,
		// One extra row tells whether another page exists.
		Limit:  int32(page.Limit + 1),
		Offset: int32(page.Offset),
	}
	if category != nil {
		c := domain.DispatchCategory(*category)
		params.Category = &c
	}

	records, err := h.pipeline.ListDispatches(r.Context(), params)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WritePaginatedSimple(w, records, page.Limit, page.Offset)
}
