package domain

import (
	"time"

	"github.com/google/uuid"
)

// DispatchCategory labels a notification and its dispatch log rows.
type DispatchCategory string

const (
	CategoryVendor   DispatchCategory = "FORNECEDOR"
	CategoryInternal DispatchCategory = "INTERNO"
)

// NotificationItem is the per-ticket data a message body needs.
type NotificationItem struct {
	Protocol    string     `json:"protocol"`
	Summary     string     `json:"summary"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	DaysOverdue int        `json:"daysOverdue"`
}

// Notification is a typed message payload. Rendering to markup is left to
// the notifier adapter.
type Notification struct {
	Recipient string             `json:"recipient"`
	Subject   string             `json:"subject"`
	Category  DispatchCategory   `json:"category"`
	Greeting  string             `json:"greeting"`
	Items     []NotificationItem `json:"items"`
}

// NewNotificationItem projects an enriched ticket onto a message row.
func NewNotificationItem(t EnrichedTicket) NotificationItem {
	return NotificationItem{
		Protocol:    t.Protocol,
		Summary:     t.Summary,
		Deadline:    t.Deadline,
		DaysOverdue: t.DaysOverdue,
	}
}

// DispatchRecord is one append-only row of the dispatch log: a ticket that
// was part of a notification judged sent.
type DispatchRecord struct {
	ID        int64            `json:"id"`
	RunID     uuid.UUID        `json:"runId"`
	Protocol  string           `json:"protocol"`
	SentAt    time.Time        `json:"sentAt"`
	Recipient string           `json:"recipient"`
	Category  DispatchCategory `json:"category"`
}

// SentDate is the calendar date part of SentAt, formatted as YYYY-MM-DD.
func (d DispatchRecord) SentDate() string {
	return d.SentAt.Format(time.DateOnly)
}

// SentTime is the clock part of SentAt, formatted as HH:MM:SS.
func (d DispatchRecord) SentTime() string {
	return d.SentAt.Format(time.TimeOnly)
}

// DispatchRecordsFor builds one record per item of a sent notification.
func DispatchRecordsFor(runID uuid.UUID, n Notification, sentAt time.Time) []DispatchRecord {
	records := make([]DispatchRecord, 0, len(n.Items))
	for _, item := range n.Items {
		records = append(records, DispatchRecord{
			RunID:     runID,
			Protocol:  item.Protocol,
			SentAt:    sentAt,
			Recipient: n.Recipient,
			Category:  n.Category,
		})
	}
	return records
}
