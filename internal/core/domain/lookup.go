package domain

import (
	"maps"
	"strings"
)

// LookupTables holds the externally supplied string mappings that drive
// classification and routing. Keys are matched exactly: no case folding and
// no whitespace trimming.
//
// A LookupTables value is built once at startup and shared read-only.
type LookupTables struct {
	StatusOwnership map[string]Ownership
	CategorySLA     map[string]SlaTracked
	LoginNames      map[string]string
	Recipients      map[string]string

	// FallbackRecipient receives internal notifications for display names
	// that have no entry in Recipients.
	FallbackRecipient string
}

// NewLookupTables copies the given maps so later mutation of the inputs does
// not leak into a running pipeline.
func NewLookupTables(
	status map[string]Ownership,
	category map[string]SlaTracked,
	names map[string]string,
	recipients map[string]string,
	fallbackRecipient string,
) *LookupTables {
	return &LookupTables{
		StatusOwnership:   cloneOrEmpty(status),
		CategorySLA:       cloneOrEmpty(category),
		LoginNames:        cloneOrEmpty(names),
		Recipients:        cloneOrEmpty(recipients),
		FallbackRecipient: fallbackRecipient,
	}
}

func cloneOrEmpty[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return maps.Clone(m)
}

// Classify maps a status label to its ownership. Unmapped or empty statuses
// yield OwnershipUnknown.
func (l *LookupTables) Classify(status string) Ownership {
	if o, ok := l.StatusOwnership[status]; ok && o.IsValid() {
		return o
	}
	return OwnershipUnknown
}

// ResolveSLA maps a category label to its SLA tracking. Unmapped categories
// yield SlaVerify.
func (l *LookupTables) ResolveSLA(category string) SlaTracked {
	if s, ok := l.CategorySLA[category]; ok && s.IsValid() {
		return s
	}
	return SlaVerify
}

// DisplayName maps a login to a person's name. Unmapped logins pass through
// unchanged.
func (l *LookupTables) DisplayName(login string) string {
	if name, ok := l.LoginNames[login]; ok && name != "" {
		return name
	}
	return login
}

// Recipient maps a display name to a mail address, falling back to
// FallbackRecipient. The second result is false when no address is known.
func (l *LookupTables) Recipient(displayName string) (string, bool) {
	if addr, ok := l.Recipients[displayName]; ok && strings.TrimSpace(addr) != "" {
		return addr, true
	}
	if strings.TrimSpace(l.FallbackRecipient) != "" {
		return l.FallbackRecipient, true
	}
	return "", false
}

// IsStatusMapped reports whether status has an explicit entry.
func (l *LookupTables) IsStatusMapped(status string) bool {
	_, ok := l.StatusOwnership[status]
	return ok
}

// IsCategoryMapped reports whether category has an explicit entry.
func (l *LookupTables) IsCategoryMapped(category string) bool {
	_, ok := l.CategorySLA[category]
	return ok
}
