package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of run event.
type EventType string

const (
	EventRunStarted   EventType = "RUN_STARTED"
	EventRunCompleted EventType = "RUN_COMPLETED"
	EventRunFailed    EventType = "RUN_FAILED"
)

// Event is the payload sent to websocket clients and the message bus.
type Event struct {
	Type    EventType   `json:"type"`
	RunID   uuid.UUID   `json:"runId"`
	Payload interface{} `json:"payload,omitempty"`
}

// RunSummary describes the outcome of one pipeline run.
type RunSummary struct {
	RunID      uuid.UUID `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Now        time.Time `json:"now"`
	Snapshot   string    `json:"snapshot"`
	DryRun     bool      `json:"dryRun"`

	Total         int               `json:"total"`
	Cohorts       map[Ownership]int `json:"cohorts"`
	OverdueVendor int               `json:"overdueVendor"`

	// Values with no mapping entry, with the number of tickets carrying them.
	UnmappedStatuses   map[string]int `json:"unmappedStatuses,omitempty"`
	UnmappedCategories map[string]int `json:"unmappedCategories,omitempty"`

	NotificationsSent   int    `json:"notificationsSent"`
	NotificationsFailed int    `json:"notificationsFailed"`
	DispatchRecords     int    `json:"dispatchRecords"`
	ReportPath          string `json:"reportPath,omitempty"`
	Error               string `json:"error,omitempty"`
}
