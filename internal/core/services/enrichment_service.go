package services

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/lorrc/sla-notifier/internal/core/domain"
	"github.com/lorrc/sla-notifier/internal/core/ports"
	"github.com/lorrc/sla-notifier/internal/infrastructure/metrics"
)

// EnrichmentService normalizes a snapshot, enriches every row and partitions
// the result into ownership cohorts.
type EnrichmentService struct {
	tables  *domain.LookupTables
	columns domain.ColumnMap
	loc     *time.Location
	logger  *slog.Logger
}

var _ ports.EnrichmentService = (*EnrichmentService)(nil)

// NewEnrichmentService creates a new enrichment service. Deadlines without an
// explicit offset are read in loc.
func NewEnrichmentService(
	tables *domain.LookupTables,
	columns domain.ColumnMap,
	loc *time.Location,
	logger *slog.Logger,
) *EnrichmentService {
	if loc == nil {
		loc = time.UTC
	}
	return &EnrichmentService{
		tables:  tables,
		columns: columns,
		loc:     loc,
		logger:  logger.With("component", "enrichment"),
	}
}

// Classify fails only when a required column is missing. Every row then
// yields exactly one enriched ticket.
func (s *EnrichmentService) Classify(ctx context.Context, records domain.RecordSet, now time.Time) (*ports.ClassifyResult, error) {
	tickets, err := records.Tickets(s.columns, s.loc)
	if err != nil {
		return nil, fmt.Errorf("normalize snapshot: %w", err)
	}

	result := &ports.ClassifyResult{
		Now:                now,
		Enriched:           make([]domain.EnrichedTicket, 0, len(tickets)),
		UnmappedStatuses:   map[string]int{},
		UnmappedCategories: map[string]int{},
	}

	for _, t := range tickets {
		result.Enriched = append(result.Enriched, domain.Enrich(t, now, s.tables))

		if !s.tables.IsStatusMapped(t.Status) {
			result.UnmappedStatuses[t.Status]++
		}
		if !s.tables.IsCategoryMapped(t.Category) {
			result.UnmappedCategories[t.Category]++
		}
	}
	result.Cohorts = domain.Partition(result.Enriched)

	s.reportUnmapped(ctx, "status", result.UnmappedStatuses)
	s.reportUnmapped(ctx, "category", result.UnmappedCategories)
	metrics.TicketsProcessed.Add(float64(len(tickets)))

	s.logger.InfoContext(ctx, "snapshot classified",
		"tickets", len(tickets),
		"internal", len(result.Cohorts.Internal),
		"vendor", len(result.Cohorts.Vendor),
		"resolved", len(result.Cohorts.Resolved),
		"unknown", len(result.Cohorts.Unknown),
	)

	return result, nil
}

// reportUnmapped surfaces lookup misses so the mapping tables can be updated.
// The tickets themselves already carry the fallback value.
func (s *EnrichmentService) reportUnmapped(ctx context.Context, field string, counts map[string]int) {
	for _, value := range slices.Sorted(maps.Keys(counts)) {
		s.logger.WarnContext(ctx, "value has no lookup entry",
			"field", field,
			"value", value,
			"tickets", counts[value],
		)
		metrics.UnmappedValues.WithLabelValues(field).Add(float64(counts[value]))
	}
}
