package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	wsAdapter "github.com/lorrc/sla-notifier/internal/adapters/primary/websocket"
	"github.com/lorrc/sla-notifier/internal/auth"
	"github.com/lorrc/sla-notifier/internal/config"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/mocks"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/lorrc/sla-notifier/internal/infrastructure/clock"
)

var saoPaulo = mustLoad("America/Sao_Paulo")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

type testAPI struct {
	router     stdhttp.Handler
	pipeline   *mocks.MockPipelineService
	enrichment *mocks.MockEnrichmentService
	tokens     *auth.TokenManager
	hub        *wsAdapter.Hub
	decoded    []string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{
		App:       config.AppConfig{Environment: "development", Version: "test"},
		WebSocket: config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}

	api := &testAPI{
		pipeline:   mocks.NewMockPipelineService(),
		enrichment: mocks.NewMockEnrichmentService(),
		tokens:     auth.NewTokenManager("test-secret", "slanotifier", time.Hour),
		hub:        wsAdapter.NewHub(logger),
	}
	go api.hub.Run(ctx)

	decode := func(name string, r io.Reader) (domain.RecordSet, error) {
		if !strings.HasSuffix(name, ".csv") {
			return domain.RecordSet{}, apperrors.ErrUnsupportedFormat
		}
		body, err := io.ReadAll(r)
		if err != nil {
			return domain.RecordSet{}, err
		}
		api.decoded = append(api.decoded, string(body))
		return domain.RecordSet{Columns: []string{"Protocolo"}, Rows: [][]string{{"REQ-1"}}}, nil
	}

	fixed := clock.NewFixed(time.Date(2024, time.March, 15, 9, 0, 0, 0, saoPaulo))
	errorHandler := NewErrorHandler(logger)

	api.router = NewRouter(ctx, cfg, api.tokens, Handlers{
		Health:     NewHealthHandler("test", map[string]HealthChecker{"database": HealthCheckFunc(func(context.Context) error { return nil })}),
		Runs:       NewRunsHandler(api.pipeline, saoPaulo, errorHandler, logger),
		Dispatches: NewDispatchHandler(api.pipeline, saoPaulo, errorHandler, logger),
		Classify:   NewClassifyHandler(api.enrichment, decode, fixed, errorHandler, logger),
		WebSocket:  NewWebSocketHandler(api.hub, api.tokens, cfg, logger),
	}, logger)

	return api
}

func (a *testAPI) do(t *testing.T, req *stdhttp.Request, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	if authenticated {
		token, err := a.tokens.GenerateToken("ops")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := api.do(t, httptest.NewRequest(stdhttp.MethodGet, path, nil), false)
		assert.Equal(t, stdhttp.StatusOK, rec.Code, path)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}
}

func TestHealthReadiness_Unhealthy(t *testing.T) {
	h := NewHealthHandler("test", map[string]HealthChecker{
		"database": HealthCheckFunc(func(context.Context) error { return nil }),
		"redis":    HealthCheckFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := httptest.NewRecorder()
	h.HandleReadiness(rec, httptest.NewRequest(stdhttp.MethodGet, "/health/ready", nil))

	assert.Equal(t, stdhttp.StatusServiceUnavailable, rec.Code)
	var resp HealthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["database"].Status)
	assert.Equal(t, "connection refused", resp.Checks["redis"].Message)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, httptest.NewRequest(stdhttp.MethodGet, "/metrics", nil), false)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "slanotifier_")
}

func TestAPI_RequiresToken(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/runs/latest", nil), false)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(stdhttp.MethodGet, "/api/v1/runs/latest", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = api.do(t, req, false)
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
	api.pipeline.AssertNotCalled(t, "Latest", mock.Anything)
}

func TestTriggerRun(t *testing.T) {
	api := newTestAPI(t)
	summary := &domain.RunSummary{RunID: uuid.New(), Total: 3, NotificationsSent: 2}

	api.pipeline.On("Run", mock.Anything, mock.MatchedBy(func(p ports.RunParams) bool {
		return p.DryRun && p.Now != nil &&
			p.Now.Equal(time.Date(2024, time.March, 15, 0, 0, 0, 0, saoPaulo))
	})).Return(summary, nil).Once()

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/runs", strings.NewReader(`{"now":"2024-03-15","dryRun":true}`))
	rec := api.do(t, req, true)

	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
	var resp struct {
		Data domain.RunSummary `json:"data"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, summary.RunID, resp.Data.RunID)
	assert.Equal(t, 2, resp.Data.NotificationsSent)
	api.pipeline.AssertExpectations(t)
}

func TestTriggerRun_EmptyBodyUsesClock(t *testing.T) {
	api := newTestAPI(t)
	api.pipeline.On("Run", mock.Anything, ports.RunParams{}).Return(&domain.RunSummary{}, nil).Once()

	rec := api.do(t, httptest.NewRequest(stdhttp.MethodPost, "/api/v1/runs", nil), true)
	assert.Equal(t, stdhttp.StatusCreated, rec.Code)
	api.pipeline.AssertExpectations(t)
}

func TestTriggerRun_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		runErr   error
		wantCode int
		wantErr  string
	}{
		{name: "bad date", body: `{"now":"15/03/2024"}`, wantCode: stdhttp.StatusUnprocessableEntity, wantErr: "VALIDATION_ERROR"},
		{name: "malformed json", body: `{"now":`, wantCode: stdhttp.StatusBadRequest, wantErr: "BAD_REQUEST"},
		{name: "already running", body: `{}`, runErr: apperrors.ErrRunInProgress, wantCode: stdhttp.StatusConflict, wantErr: "RUN_IN_PROGRESS"},
		{name: "missing columns", body: `{}`, runErr: apperrors.NewMissingColumnsError([]string{"Status"}), wantCode: stdhttp.StatusUnprocessableEntity, wantErr: "MISSING_COLUMNS"},
		{name: "no snapshot", body: `{}`, runErr: apperrors.ErrSnapshotNotFound, wantCode: stdhttp.StatusNotFound, wantErr: "SNAPSHOT_NOT_FOUND"},
		{name: "unexpected", body: `{}`, runErr: errors.New("smtp down"), wantCode: stdhttp.StatusInternalServerError, wantErr: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestAPI(t)
			if tt.runErr != nil {
				api.pipeline.On("Run", mock.Anything, mock.Anything).Return(nil, tt.runErr).Once()
			}

			req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/runs", strings.NewReader(tt.body))
			rec := api.do(t, req, true)

			assert.Equal(t, tt.wantCode, rec.Code)
			var resp map[string]any
			decodeBody(t, rec, &resp)
			assert.Equal(t, tt.wantErr, resp["code"])
		})
	}
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		sentinel   error
	}{
		{"missing columns", apperrors.NewMissingColumnsError([]string{"Status"}), stdhttp.StatusUnprocessableEntity, "MISSING_COLUMNS", apperrors.ErrMissingColumn},
		{"unsupported format", apperrors.ErrUnsupportedFormat, stdhttp.StatusBadRequest, "UNSUPPORTED_FORMAT", apperrors.ErrBadRequest},
		{"no snapshot", apperrors.ErrSnapshotNotFound, stdhttp.StatusNotFound, "SNAPSHOT_NOT_FOUND", apperrors.ErrNotFound},
		{"run in progress", apperrors.ErrRunInProgress, stdhttp.StatusConflict, "RUN_IN_PROGRESS", apperrors.ErrConflict},
		{"no run", apperrors.ErrRunNotFound, stdhttp.StatusNotFound, "RUN_NOT_FOUND", apperrors.ErrNotFound},
		{"invalid token", auth.ErrInvalidToken, stdhttp.StatusUnauthorized, "UNAUTHORIZED", apperrors.ErrUnauthorized},
		{"rate limited", apperrors.ErrRateLimited, stdhttp.StatusTooManyRequests, "RATE_LIMITED", apperrors.ErrRateLimited},
		{"unexpected", errors.New("smtp down"), stdhttp.StatusInternalServerError, "INTERNAL_ERROR", apperrors.ErrInternal},
		{"already an app error", apperrors.NewBadRequestError(errors.New("x"), "bad"), stdhttp.StatusBadRequest, "BAD_REQUEST", apperrors.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAppError(tt.err)
			assert.Equal(t, tt.wantStatus, got.StatusCode)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.ErrorIs(t, got, tt.sentinel)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, httptest.NewRequest(stdhttp.MethodGet, "/nothing-here", nil), false)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
	var resp map[string]any
	decodeBody(t, rec, &resp)
	assert.Equal(t, "NOT_FOUND", resp["code"])
}

func TestLatestRun(t *testing.T) {
	api := newTestAPI(t)
	api.pipeline.On("Latest", mock.Anything).Return(nil, apperrors.ErrRunNotFound).Once()

	rec := api.do(t, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/runs/latest", nil), true)
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	summary := &domain.RunSummary{RunID: uuid.New(), Snapshot: "export.csv"}
	api.pipeline.On("Latest", mock.Anything).Return(summary, nil).Once()

	rec = api.do(t, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/runs/latest", nil), true)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "export.csv")
}

func TestListDispatches(t *testing.T) {
	api := newTestAPI(t)

	records := []*domain.DispatchRecord{
		{ID: 3, Protocol: "REQ-1", Category: domain.CategoryVendor},
		{ID: 2, Protocol: "REQ-1", Category: domain.CategoryVendor},
		{ID: 1, Protocol: "REQ-1", Category: domain.CategoryVendor},
	}
	api.pipeline.On("ListDispatches", mock.Anything, mock.MatchedBy(func(p ports.ListDispatchesParams) bool {
		return p.Limit == 3 && p.Offset == 4 &&
			p.Protocol != nil && *p.Protocol == "REQ-1" &&
			p.Category != nil && *p.Category == domain.CategoryVendor &&
			p.Since != nil && p.Since.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, saoPaulo))
	})).Return(records, nil).Once()

	req := httptest.NewRequest(stdhttp.MethodGet,
		"/api/v1/dispatches?protocol=REQ-1&category=FORNECEDOR&since=2024-03-01&limit=2&offset=4", nil)
	rec := api.do(t, req, true)

	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var resp PaginatedResponse[domain.DispatchRecord]
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Data, 2)
	assert.True(t, resp.Pagination.HasMore)
	assert.Equal(t, 2, resp.Pagination.Limit)
	api.pipeline.AssertExpectations(t)
}

func TestListDispatches_InvalidFilters(t *testing.T) {
	api := newTestAPI(t)

	for _, query := range []string{"category=OTHER", "since=last-week"} {
		rec := api.do(t, httptest.NewRequest(stdhttp.MethodGet, "/api/v1/dispatches?"+query, nil), true)
		assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code, query)
	}
	api.pipeline.AssertNotCalled(t, "ListDispatches", mock.Anything, mock.Anything)
}

func TestClassify_Multipart(t *testing.T) {
	api := newTestAPI(t)

	result := &ports.ClassifyResult{
		Now: time.Date(2024, time.March, 15, 0, 0, 0, 0, saoPaulo),
		Cohorts: domain.Cohorts{
			Vendor: []domain.EnrichedTicket{{Ticket: domain.Ticket{Protocol: "REQ-1"}, Ownership: domain.OwnershipVendor, Overdue: true, DaysOverdue: 5}},
		},
		UnmappedStatuses: map[string]int{"Novo": 1},
	}
	api.enrichment.On("Classify", mock.Anything, mock.Anything, time.Date(2024, time.March, 15, 9, 0, 0, 0, saoPaulo)).
		Return(result, nil).Once()

	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	part, err := mp.CreateFormFile("file", "export.csv")
	require.NoError(t, err)
	_, _ = part.Write([]byte("Protocolo\nREQ-1\n"))
	require.NoError(t, mp.Close())

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/classify", &body)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	rec := api.do(t, req, true)

	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data ClassifyResponse `json:"data"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.OverdueVendor)
	assert.Equal(t, 1, resp.Data.Sizes[domain.OwnershipVendor])
	assert.Equal(t, map[string]int{"Novo": 1}, resp.Data.UnmappedStatuses)
	assert.Equal(t, []string{"Protocolo\nREQ-1\n"}, api.decoded)
}

func TestClassify_RawBodyWithDate(t *testing.T) {
	api := newTestAPI(t)
	pinned := time.Date(2024, time.April, 1, 0, 0, 0, 0, saoPaulo)
	api.enrichment.On("Classify", mock.Anything, mock.Anything, pinned).
		Return(&ports.ClassifyResult{Now: pinned}, nil).Once()

	req := httptest.NewRequest(stdhttp.MethodPost, "/api/v1/classify?name=export.csv&now=2024-04-01", strings.NewReader("Protocolo\n"))
	rec := api.do(t, req, true)

	assert.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())
	api.enrichment.AssertExpectations(t)
}

func TestClassify_Errors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, httptest.NewRequest(stdhttp.MethodPost, "/api/v1/classify", strings.NewReader("x")), true)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code, "raw upload without a name")

	rec = api.do(t, httptest.NewRequest(stdhttp.MethodPost, "/api/v1/classify?name=export.pdf", strings.NewReader("x")), true)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_FORMAT")

	api.enrichment.On("Classify", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.NewMissingColumnsError([]string{"Status", "Categoria"})).Once()
	rec = api.do(t, httptest.NewRequest(stdhttp.MethodPost, "/api/v1/classify?name=export.csv", strings.NewReader("x")), true)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Categoria")
}

func TestWebSocket_RunEvents(t *testing.T) {
	api := newTestAPI(t)
	server := httptest.NewServer(api.router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)

	token, err := api.tokens.GenerateToken("ops")
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return api.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	runID := uuid.New()
	require.NoError(t, api.hub.Broadcast(domain.Event{Type: domain.EventRunCompleted, RunID: runID}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event domain.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, domain.EventRunCompleted, event.Type)
	assert.Equal(t, runID, event.RunID)
}

func TestOriginAllowed(t *testing.T) {
	allowed := []string{"ops.example.com", "*.metrus.org.br"}

	assert.True(t, originAllowed("ops.example.com", allowed))
	assert.True(t, originAllowed("painel.metrus.org.br", allowed))
	assert.True(t, originAllowed("metrus.org.br", allowed))
	assert.False(t, originAllowed("evil.com", allowed))
	assert.False(t, originAllowed("example.com", allowed))
}
