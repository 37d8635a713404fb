package domain

import (
	"maps"
	"slices"
)

// Cohorts partitions enriched tickets by ownership. Every ticket lands in
// exactly one slice, and input order is kept within each slice.
type Cohorts struct {
	Internal []EnrichedTicket `json:"internal"`
	Vendor   []EnrichedTicket `json:"vendor"`
	Resolved []EnrichedTicket `json:"resolved"`
	Unknown  []EnrichedTicket `json:"unknown"`
}

// Partition splits enriched tickets into the four ownership cohorts. Tickets
// carrying an ownership outside the known set go to Unknown.
func Partition(enriched []EnrichedTicket) Cohorts {
	var c Cohorts
	for _, t := range enriched {
		switch t.Ownership {
		case OwnershipInternal:
			c.Internal = append(c.Internal, t)
		case OwnershipVendor:
			c.Vendor = append(c.Vendor, t)
		case OwnershipResolved:
			c.Resolved = append(c.Resolved, t)
		default:
			c.Unknown = append(c.Unknown, t)
		}
	}
	return c
}

// Total returns the number of tickets across all cohorts.
func (c Cohorts) Total() int {
	return len(c.Internal) + len(c.Vendor) + len(c.Resolved) + len(c.Unknown)
}

// Sizes returns the cohort sizes keyed by ownership.
func (c Cohorts) Sizes() map[Ownership]int {
	return map[Ownership]int{
		OwnershipInternal: len(c.Internal),
		OwnershipVendor:   len(c.Vendor),
		OwnershipResolved: len(c.Resolved),
		OwnershipUnknown:  len(c.Unknown),
	}
}

// OverdueVendor returns the vendor tickets past their deadline. Only these
// drive the vendor notification; the rest stay in the report.
func (c Cohorts) OverdueVendor() []EnrichedTicket {
	var out []EnrichedTicket
	for _, t := range c.Vendor {
		if t.Overdue {
			out = append(out, t)
		}
	}
	return out
}

// GroupByDisplayName groups a cohort by resolved display name. Different
// logins that map to the same name share one group. Map iteration order is
// unspecified; use SortedGroupNames for a stable order.
func GroupByDisplayName(cohort []EnrichedTicket) map[string][]EnrichedTicket {
	groups := make(map[string][]EnrichedTicket)
	for _, t := range cohort {
		groups[t.DisplayName] = append(groups[t.DisplayName], t)
	}
	return groups
}

// SortedGroupNames returns the group keys in lexical order.
func SortedGroupNames(groups map[string][]EnrichedTicket) []string {
	return slices.Sorted(maps.Keys(groups))
}
