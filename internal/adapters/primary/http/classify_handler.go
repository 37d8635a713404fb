package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/sla-notifier/internal/adapters/primary/validation"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

const maxSnapshotUpload = 32 << 20

// SnapshotDecoder parses an uploaded export. The name selects the format.
type SnapshotDecoder func(name string, r io.Reader) (domain.RecordSet, error)

// ClassifyHandler previews how an uploaded export would be partitioned,
// without sending anything.
type ClassifyHandler struct {
	enrichment   ports.EnrichmentService
	decode       SnapshotDecoder
	clock        ports.Clock
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewClassifyHandler creates a new classify handler
func NewClassifyHandler(
	enrichment ports.EnrichmentService,
	decode SnapshotDecoder,
	clock ports.Clock,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *ClassifyHandler {
	return &ClassifyHandler{
		enrichment:   enrichment,
		decode:       decode,
		clock:        clock,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "classify"),
	}
}

// RegisterRoutes sets up the routing for classify endpoints.
func (h *ClassifyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.HandleClassify)
}

// ClassifyResponse is the JSON view of a classification.
type ClassifyResponse struct {
	Now                time.Time                `json:"now"`
	Total              int                      `json:"total"`
	Sizes              map[domain.Ownership]int `json:"sizes"`
	OverdueVendor      int                      `json:"overdueVendor"`
	UnmappedStatuses   map[string]int           `json:"unmappedStatuses,omitempty"`
	UnmappedCategories map[string]int           `json:"unmappedCategories,omitempty"`
	Cohorts            domain.Cohorts           `json:"cohorts"`
}

// HandleClassify accepts either a multipart form with a "file" part or a raw
// body named by the "name" query parameter. "now" (YYYY-MM-DD) pins the date.
func (h *ClassifyHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotUpload)

	v := validation.NewValidator()
	nowParam := r.URL.Query().Get("now")
	v.Date("now", nowParam)
	if v.HasErrors() {
		h.errorHandler.Handle(w, r, v.Errors())
		return
	}

	now := h.clock.Now()
	if nowParam != "" {
		var err error
		now, err = time.ParseInLocation(time.DateOnly, nowParam, now.Location())
		if HandleError(w, r, err, h.errorHandler) {
			return
		}
	}

	name, body, err := h.upload(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	defer body.Close()

	records, err := h.decode(name, body)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	result, err := h.enrichment.Classify(r.Context(), records, now)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteSuccess(w, ClassifyResponse{
		Now:                result.Now,
		Total:              result.Cohorts.Total(),
		Sizes:              result.Cohorts.Sizes(),
		OverdueVendor:      len(result.Cohorts.OverdueVendor()),
		UnmappedStatuses:   result.UnmappedStatuses,
		UnmappedCategories: result.UnmappedCategories,
		Cohorts:            result.Cohorts,
	})
}

func (h *ClassifyHandler) upload(r *http.Request) (string, io.ReadCloser, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, apperrors.NewBadRequestError(err, `multipart upload needs a "file" part`)
		}
		return header.Filename, file, nil
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		return "", nil, apperrors.NewBadRequestError(
			errors.New("missing name"), `raw uploads need a "name" query parameter such as export.csv`)
	}
	return name, r.Body, nil
}
