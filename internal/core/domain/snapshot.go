package domain

import (
	"strings"
	"time"

	apperrors "github.com/lorrc/sla-notifier/internal/core/errors"
)

// RecordSet is a raw table: a header row plus data rows, all as text.
type RecordSet struct {
	Columns []string
	Rows    [][]string
}

// Snapshot is one tabular export as delivered by a snapshot source.
type Snapshot struct {
	Name      string
	FetchedAt time.Time
	Records   RecordSet
}

// ColumnMap names the snapshot header used for each ticket field.
type ColumnMap struct {
	Protocol   string `yaml:"protocol"`
	Summary    string `yaml:"summary"`
	Status     string `yaml:"status"`
	Category   string `yaml:"category"`
	Deadline   string `yaml:"deadline"`
	OwnerLogin string `yaml:"owner_login"`
	CreatedBy  string `yaml:"created_by_login"`
}

// DefaultColumnMap matches the headers of the helpdesk export.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		Protocol:   "Protocolo",
		Summary:    "Resumo",
		Status:     "Situação",
		Category:   "Classificação",
		Deadline:   "Prazo SLA",
		OwnerLogin: "Usuário responsável",
		CreatedBy:  "Incluído por",
	}
}

// Required lists the headers that must be present. The deadline column is
// optional: without it every ticket is treated as having no deadline.
func (c ColumnMap) Required() []string {
	return []string{c.Protocol, c.Summary, c.Status, c.Category, c.OwnerLogin, c.CreatedBy}
}

// Normalize returns a copy with surrounding whitespace trimmed from every
// column name. Row order and values are untouched and no row is dropped.
func (r RecordSet) Normalize() RecordSet {
	cols := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
	}
	return RecordSet{Columns: cols, Rows: r.Rows}
}

// Index returns the position of each column name. When a name repeats, the
// first occurrence wins.
func (r RecordSet) Index() map[string]int {
	idx := make(map[string]int, len(r.Columns))
	for i, c := range r.Columns {
		if _, seen := idx[c]; !seen {
			idx[c] = i
		}
	}
	return idx
}

// Require fails with a *apperrors.ConfigError naming every required column
// that is structurally absent. Empty values in a present column are fine.
func (r RecordSet) Require(columns ...string) error {
	idx := r.Index()
	var missing []string
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewMissingColumnsError(missing)
	}
	return nil
}

// Tickets normalizes the record set, checks the required columns and maps
// each row to a Ticket. Deadlines are parsed in loc.
func (r RecordSet) Tickets(cols ColumnMap, loc *time.Location) ([]Ticket, error) {
	norm := r.Normalize()
	if err := norm.Require(cols.Required()...); err != nil {
		return nil, err
	}

	idx := norm.Index()
	deadlineIdx, hasDeadline := idx[cols.Deadline]

	// Status and category keep their raw text: lookups match keys exactly.
	raw := func(row []string, i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	cell := func(row []string, i int) string {
		return strings.TrimSpace(raw(row, i))
	}

	tickets := make([]Ticket, 0, len(norm.Rows))
	for _, row := range norm.Rows {
		t := Ticket{
			Protocol:       cell(row, idx[cols.Protocol]),
			Summary:        cell(row, idx[cols.Summary]),
			Status:         raw(row, idx[cols.Status]),
			Category:       raw(row, idx[cols.Category]),
			OwnerLogin:     raw(row, idx[cols.OwnerLogin]),
			CreatedByLogin: raw(row, idx[cols.CreatedBy]),
		}
		if hasDeadline {
			t.Deadline = ParseDeadline(cell(row, deadlineIdx), loc)
		}
		tickets = append(tickets, t)
	}

	return tickets, nil
}
