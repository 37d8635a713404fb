package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockSnapshotSource is a mock implementation of ports.SnapshotSource
type MockSnapshotSource struct {
	mock.Mock
}

func NewMockSnapshotSource() *MockSnapshotSource {
	return &MockSnapshotSource{}
}

func (m *MockSnapshotSource) Fetch(ctx context.Context) (*domain.Snapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

// MockNotifier is a mock implementation of ports.Notifier
type MockNotifier struct {
	mock.Mock
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Send(ctx context.Context, n domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// MockDispatchLog is a mock implementation of ports.DispatchLog
type MockDispatchLog struct {
	mock.Mock
}

func NewMockDispatchLog() *MockDispatchLog {
	return &MockDispatchLog{}
}

func (m *MockDispatchLog) Record(ctx context.Context, records []domain.DispatchRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockDispatchLog) List(ctx context.Context, params ports.ListDispatchesParams) ([]*domain.DispatchRecord, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DispatchRecord), args.Error(1)
}

// MockRunRepository is a mock implementation of ports.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func NewMockRunRepository() *MockRunRepository {
	return &MockRunRepository{}
}

func (m *MockRunRepository) Save(ctx context.Context, summary *domain.RunSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

func (m *MockRunRepository) Latest(ctx context.Context) (*domain.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

// MockReportWriter is a mock implementation of ports.ReportWriter
type MockReportWriter struct {
	mock.Mock
}

func NewMockReportWriter() *MockReportWriter {
	return &MockReportWriter{}
}

func (m *MockReportWriter) Write(ctx context.Context, report ports.Report) (string, error) {
	args := m.Called(ctx, report)
	return args.String(0), args.Error(1)
}

// MockRunLocker is a mock implementation of ports.RunLocker
type MockRunLocker struct {
	mock.Mock
}

func NewMockRunLocker() *MockRunLocker {
	return &MockRunLocker{}
}

func (m *MockRunLocker) Acquire(ctx context.Context, runID uuid.UUID, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, runID, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockPipelineService is a mock implementation of ports.PipelineService
type MockPipelineService struct {
	mock.Mock
}

func NewMockPipelineService() *MockPipelineService {
	return &MockPipelineService{}
}

func (m *MockPipelineService) Run(ctx context.Context, params ports.RunParams) (*domain.RunSummary, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockPipelineService) Latest(ctx context.Context) (*domain.RunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockPipelineService) ListDispatches(ctx context.Context, params ports.ListDispatchesParams) ([]*domain.DispatchRecord, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DispatchRecord), args.Error(1)
}

// MockEnrichmentService is a mock implementation of ports.EnrichmentService
type MockEnrichmentService struct {
	mock.Mock
}

func NewMockEnrichmentService() *MockEnrichmentService {
	return &MockEnrichmentService{}
}

func (m *MockEnrichmentService) Classify(ctx context.Context, records domain.RecordSet, now time.Time) (*ports.ClassifyResult, error) {
	args := m.Called(ctx, records, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ClassifyResult), args.Error(1)
}
