package email

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"regexp"
	"strconv"
	"strings"

	"github.com/lorrc/sla-notifier/internal/config"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"golang.org/x/time/rate"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier delivers notifications as HTML mail over SMTP.
type SMTPNotifier struct {
	addr    string
	from    string
	auth    smtp.Auth
	limiter *rate.Limiter
	send    SendFunc
	logger  *slog.Logger
}

var _ ports.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a notifier from the mail configuration. Sends are
// throttled to cfg.RatePerSecond with cfg.Burst.
func NewSMTPNotifier(cfg config.MailConfig, logger *slog.Logger) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &SMTPNotifier{
		addr:    cfg.Host + ":" + strconv.Itoa(cfg.Port),
		from:    cfg.From,
		auth:    auth,
		limiter: rate.NewLimiter(limit, burst),
		send:    smtp.SendMail,
		logger:  logger.With("component", "smtp_notifier"),
	}
}

// WithSendFunc replaces the transport, mainly for tests.
func (n *SMTPNotifier) WithSendFunc(send SendFunc) *SMTPNotifier {
	n.send = send
	return n
}

// Send renders and delivers one notification.
func (n *SMTPNotifier) Send(ctx context.Context, notification domain.Notification) error {
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

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	msg := buildMessage(n.from, to, notification.Subject, body)
	if err := n.send(n.addr, n.auth, n.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	n.logger.InfoContext(ctx, "notification sent",
		"recipient", to,
		"category", notification.Category,
		"items", len(notification.Items),
	)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + sanitizeEmailHeader(from) + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", sanitizeEmailHeader(subject)) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// sanitizeEmailHeader strips characters that would allow header injection.
func sanitizeEmailHeader(value string) string {
	value = strings.ReplaceAll(value, "\r", "")
	value = strings.ReplaceAll(value, "\n", "")
	return strings.TrimSpace(value)
}

func sanitizeAndValidateEmail(address string) (string, error) {
	address = sanitizeEmailHeader(address)
	if !emailRegex.MatchString(address) {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidRecipient, address)
	}
	return address, nil
}
