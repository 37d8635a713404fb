package nats_test

import (
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	slanats "github.com/lorrc/sla-notifier/internal/adapters/secondary/nats"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	msgs []*nats.Msg
	err  error
}

func (f *fakeConn) PublishMsg(m *nats.Msg) error {
	f.msgs = append(f.msgs, m)
	return f.err
}

func TestPublisher_Broadcast(t *testing.T) {
	conn := &fakeConn{}
	p := slanats.NewPublisher(conn, "", slog.New(slog.DiscardHandler))

	runID := uuid.New()
	event := domain.Event{
		Type:    domain.EventRunCompleted,
		RunID:   runID,
		Payload: domain.RunSummary{RunID: runID, Total: 7},
	}
	require.NoError(t, p.Broadcast(event))
	require.Len(t, conn.msgs, 1)

	msg := conn.msgs[0]
	assert.Equal(t, "slanotifier.runs.completed", msg.Subject)
	assert.Equal(t, runID.String(), msg.Header.Get(slanats.RunIDHeader))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Data, &decoded))
	assert.Equal(t, string(domain.EventRunCompleted), decoded["type"])
}

func TestPublisher_Subject(t *testing.T) {
	p := slanats.NewPublisher(&fakeConn{}, "ops.sla", slog.New(slog.DiscardHandler))
	assert.Equal(t, "ops.sla.started", p.Subject(domain.EventRunStarted))
	assert.Equal(t, "ops.sla.failed", p.Subject(domain.EventRunFailed))
}

func TestPublisher_BroadcastError(t *testing.T) {
	errClosed := errors.New("connection closed")
	p := slanats.NewPublisher(&fakeConn{err: errClosed}, "", slog.New(slog.DiscardHandler))
	err := p.Broadcast(domain.Event{Type: domain.EventRunStarted, RunID: uuid.New()})
	assert.ErrorIs(t, err, errClosed)
}
