package services

import (
	"log/slog"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
)

const (
	DefaultVendorSubject   = "Alerta: Chamados Fora do Prazo"
	DefaultInternalSubject = "Ação Necessária: Homologação Pendente"
	DefaultVendorGreeting  = "Gestor"
)

// AssemblerConfig holds the fixed parts of every notification.
type AssemblerConfig struct {
	VendorRecipient string
	VendorGreeting  string
	VendorSubject   string
	InternalSubject string
}

// NotificationAssembler turns cohorts into typed notification payloads.
type NotificationAssembler struct {
	tables *domain.LookupTables
	cfg    AssemblerConfig
	logger *slog.Logger
}

var _ ports.NotificationAssembler = (*NotificationAssembler)(nil)

// NewNotificationAssembler creates a new assembler. Empty subjects and
// greeting fall back to the defaults.
func NewNotificationAssembler(tables *domain.LookupTables, cfg AssemblerConfig, logger *slog.Logger) *NotificationAssembler {
	if cfg.VendorSubject == "" {
		cfg.VendorSubject = DefaultVendorSubject
	}
	if cfg.InternalSubject == "" {
		cfg.InternalSubject = DefaultInternalSubject
	}
	if cfg.VendorGreeting == "" {
		cfg.VendorGreeting = DefaultVendorGreeting
	}
	return &NotificationAssembler{
		tables: tables,
		cfg:    cfg,
		logger: logger.With("component", "notification_assembler"),
	}
}

// Assemble returns the vendor alert first, when there are overdue vendor
// tickets, followed by one internal notification per display name in
// lexical order. Groups with no resolvable address are skipped.
func (a *NotificationAssembler) Assemble(cohorts domain.Cohorts) []domain.Notification {
	var out []domain.Notification

	if overdue := cohorts.OverdueVendor(); len(overdue) > 0 {
		if a.cfg.VendorRecipient == "" {
			a.logger.Warn("overdue vendor tickets but no vendor recipient configured",
				"tickets", len(overdue),
			)
		} else {
			out = append(out, domain.Notification{
				Recipient: a.cfg.VendorRecipient,
				Subject:   a.cfg.VendorSubject,
				Category:  domain.CategoryVendor,
				Greeting:  a.cfg.VendorGreeting,
				Items:     items(overdue),
			})
		}
	}

	groups := domain.GroupByDisplayName(cohorts.Internal)
	for _, name := range domain.SortedGroupNames(groups) {
		recipient, ok := a.tables.Recipient(name)
		if !ok {
			a.logger.Warn("no recipient for display name",
				"display_name", name,
				"tickets", len(groups[name]),
			)
			continue
		}
		out = append(out, domain.Notification{
			Recipient: recipient,
			Subject:   a.cfg.InternalSubject,
			Category:  domain.CategoryInternal,
			Greeting:  name,
			Items:     items(groups[name]),
		})
	}

	return out
}

func items(tickets []domain.EnrichedTicket) []domain.NotificationItem {
	out := make([]domain.NotificationItem, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, domain.NewNotificationItem(t))
	}
	return out
}
