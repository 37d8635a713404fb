package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/lorrc/sla-notifier/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_AddsServiceAndContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{
		Level:       "debug",
		Format:      "json",
		Output:      &buf,
		ServiceName: "sla-notifier",
		Environment: "test",
	})

	ctx := logging.WithRunID(context.Background(), "run-1")
	ctx = logging.WithRequestID(ctx, "req-1")
	logger.InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "sla-notifier", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: "warn", Output: &buf})

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Level: "verbose", Output: &buf})

	logger.Debug("dropped")
	assert.Zero(t, buf.Len())

	logger.Info("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, logging.GetRequestID(ctx))

	ctx = logging.WithRequestID(ctx, "abc")
	assert.Equal(t, "abc", logging.GetRequestID(ctx))
}

func TestNewLogger_OperatorAndChildLoggers(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Output: &buf, ServiceName: "sla-notifier"})

	ctx := logging.WithOperator(context.Background(), "ops@example.com")
	logger.With("component", "scheduler").WarnContext(ctx, "late")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ops@example.com", entry["operator"])
	assert.Equal(t, "scheduler", entry["component"])
	assert.Equal(t, "sla-notifier", entry["service"])
	assert.NotContains(t, entry, "run_id")
}

func TestLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{302, slog.LevelInfo},
		{404, slog.LevelWarn},
		{429, slog.LevelWarn},
		{500, slog.LevelError},
		{503, slog.LevelError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, logging.LevelForStatus(tt.status), "status %d", tt.status)
	}
}

func TestLogPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLogger(logging.Config{Output: &buf})

	logging.LogPanic(logging.WithRequestID(context.Background(), "req-9"), logger, "boom")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "boom", entry["panic"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Contains(t, entry["stack_trace"], "goroutine")
}
