package email

import (
	"context"
	"log/slog"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

// LogNotifier renders notifications and logs them instead of sending mail.
// Every send succeeds once the message renders, so dispatch records are
// still written.
type LogNotifier struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "email_notifier")}
}

// Send logs the notification to the console instead of sending an email.
func (n *LogNotifier) Send(ctx context.Context, notification domain.Notification) error {
	if len(notification.Items) == 0 {
		return apperrors.ErrEmptyNotification
	}
	to, err := sanitizeAndValidateEmail(notification.Recipient)
	if err != nil {
		return err
	}
	body, err := RenderBody(notification)
	if err != nil {
		return err
	}

	protocols := make([]string, 0, len(notification.Items))
	for _, item := range notification.Items {
		protocols = append(protocols, item.Protocol)
	}

	n.logger.InfoContext(ctx, "notification simulated",
		"recipient", to,
		"subject", notification.Subject,
		"category", notification.Category,
		"protocols", protocols,
		"body_bytes", len(body),
	)
	return nil
}
