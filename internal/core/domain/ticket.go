package domain

import (
	"time"
)

// Ownership represents which party must act next on a ticket.
type Ownership string

const (
	OwnershipInternal Ownership = "INTERNAL"
	OwnershipVendor   Ownership = "VENDOR"
	OwnershipResolved Ownership = "RESOLVED"
	OwnershipUnknown  Ownership = "UNKNOWN"
)

// IsValid reports whether the ownership is one of the four known values.
func (o Ownership) IsValid() bool {
	switch o {
	case OwnershipInternal, OwnershipVendor, OwnershipResolved, OwnershipUnknown:
		return true
	}
	return false
}

// SlaTracked tells whether a ticket's category is under a contractual SLA.
type SlaTracked string

const (
	SlaYes    SlaTracked = "YES"
	SlaNo     SlaTracked = "NO"
	SlaVerify SlaTracked = "VERIFY"
)

// IsValid reports whether the value is one of the three known values.
func (s SlaTracked) IsValid() bool {
	switch s {
	case SlaYes, SlaNo, SlaVerify:
		return true
	}
	return false
}

// Ticket is one row of the input snapshot.
type Ticket struct {
	Protocol       string     `json:"protocol"`
	Summary        string     `json:"summary"`
	Status         string     `json:"status"`
	Category       string     `json:"category"`
	Deadline       *time.Time `json:"deadline,omitempty"`
	OwnerLogin     string     `json:"ownerLogin,omitempty"`
	CreatedByLogin string     `json:"createdByLogin"`
}

// EnrichedTicket is a Ticket plus the fields derived from it at a given instant.
type EnrichedTicket struct {
	Ticket

	Ownership           Ownership  `json:"ownership"`
	SlaTracked          SlaTracked `json:"slaTracked"`
	Overdue             bool       `json:"overdue"`
	DaysOverdue         int        `json:"daysOverdue"`
	EffectiveOwnerLogin string     `json:"effectiveOwnerLogin"`
	DisplayName         string     `json:"displayName"`
}

// Enrich derives every computed field of t. It is a pure function of its
// arguments: the same ticket, instant and tables always produce the same result.
func Enrich(t Ticket, now time.Time, tables *LookupTables) EnrichedTicket {
	overdue, days := EvaluateDeadline(t.Deadline, now)
	login := EffectiveLogin(t.OwnerLogin, t.CreatedByLogin)

	return EnrichedTicket{
		Ticket:              t,
		Ownership:           tables.Classify(t.Status),
		SlaTracked:          tables.ResolveSLA(t.Category),
		Overdue:             overdue,
		DaysOverdue:         days,
		EffectiveOwnerLogin: login,
		DisplayName:         tables.DisplayName(login),
	}
}
