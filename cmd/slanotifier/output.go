package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/lorrc/sla-notifier/internal/core/domain"
	"gopkg.in/yaml.v3"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	headerColor  = color.New(color.FgWhite, color.Bold)
	overdueColor = color.New(color.FgRed)
)

func success(w io.Writer, format string, a ...interface{}) {
	successColor.Fprintf(w, "✓ "+format+"\n", a...)
}

func warn(w io.Writer, format string, a ...interface{}) {
	warnColor.Fprintf(w, "⚠ "+format+"\n", a...)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// printTickets renders one cohort as an aligned table.
func printTickets(w io.Writer, title string, tickets []domain.EnrichedTicket) {
	headerColor.Fprintf(w, "\n%s (%d)\n", title, len(tickets))
	if len(tickets) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROTOCOL\tSTATUS\tSLA\tOWNER\tDEADLINE\tDAYS OVERDUE")
	for _, t := range tickets {
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.Format("02/01/2006")
		}
		days := strconv.Itoa(t.DaysOverdue)
		if t.Overdue {
			days = overdueColor.Sprint(days)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.Protocol, t.Status, t.SlaTracked, t.DisplayName, deadline, days)
	}
	_ = tw.Flush()
}

// printUnmapped lists values missing from the rules, most frequent first.
func printUnmapped(w io.Writer, kind string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	sort.Slice(values, func(i, j int) bool {
		if counts[values[i]] != counts[values[j]] {
			return counts[values[i]] > counts[values[j]]
		}
		return values[i] < values[j]
	})
	for _, v := range values {
		warn(w, "unmapped %s %q on %d ticket(s)", kind, v, counts[v])
	}
}

func printSummary(w io.Writer, s *domain.RunSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "run\t%s\n", s.RunID)
	fmt.Fprintf(tw, "snapshot\t%s\n", s.Snapshot)
	fmt.Fprintf(tw, "evaluated at\t%s\n", s.Now.Format("02/01/2006"))
	fmt.Fprintf(tw, "tickets\t%d\n", s.Total)
	for _, o := range []domain.Ownership{domain.OwnershipVendor, domain.OwnershipInternal, domain.OwnershipResolved, domain.OwnershipUnknown} {
		fmt.Fprintf(tw, "  %s\t%d\n", o, s.Cohorts[o])
	}
	fmt.Fprintf(tw, "overdue vendor\t%d\n", s.OverdueVendor)
	fmt.Fprintf(tw, "notifications sent\t%d\n", s.NotificationsSent)
	fmt.Fprintf(tw, "notifications failed\t%d\n", s.NotificationsFailed)
	fmt.Fprintf(tw, "dispatch records\t%d\n", s.DispatchRecords)
	if s.ReportPath != "" {
		fmt.Fprintf(tw, "report\t%s\n", s.ReportPath)
	}
	_ = tw.Flush()

	printUnmapped(w, "status", s.UnmappedStatuses)
	printUnmapped(w, "category", s.UnmappedCategories)
}
