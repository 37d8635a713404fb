// Package nats publishes run events to a NATS subject tree.
package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lorrc/sla-notifier/internal/config"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/nats-io/nats.go"
)

// DefaultSubjectPrefix is the subject root for run events.
const DefaultSubjectPrefix = "slanotifier.runs"

// RunIDHeader carries the run ID on every message.
const RunIDHeader = "Run-Id"

// MsgPublisher is the subset of *nats.Conn the publisher uses.
type MsgPublisher interface {
	PublishMsg(m *nats.Msg) error
}

// Connect opens a NATS connection that reconnects indefinitely.
func Connect(cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

// Publisher forwards run events as JSON messages.
type Publisher struct {
	conn   MsgPublisher
	prefix string
	logger *slog.Logger
}

var _ ports.EventBroadcaster = (*Publisher)(nil)

// NewPublisher creates a publisher rooted at prefix.
func NewPublisher(conn MsgPublisher, prefix string, logger *slog.Logger) *Publisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger.With("component", "nats_publisher")}
}

// Subject maps an event type to its subject, e.g. RUN_COMPLETED to
// "<prefix>.completed".
func (p *Publisher) Subject(t domain.EventType) string {
	suffix := strings.ToLower(strings.TrimPrefix(string(t), "RUN_"))
	return p.prefix + "." + suffix
}

// Broadcast publishes one event.
func (p *Publisher) Broadcast(event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event.Type),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(RunIDHeader, event.RunID.String())

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", msg.Subject, err)
	}
	p.logger.Debug("event published", "subject", msg.Subject, "run_id", event.RunID)
	return nil
}
