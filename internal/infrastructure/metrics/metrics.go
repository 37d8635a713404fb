package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slanotifier_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "slanotifier_run_duration_seconds",
			Help:    "Duration of pipeline runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slanotifier_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		},
	)

	// Classification metrics
	TicketsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slanotifier_tickets_processed_total",
			Help: "Total number of tickets enriched",
		},
	)

	CohortSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "slanotifier_cohort_size",
			Help: "Number of tickets per ownership cohort in the last run",
		},
		[]string{"ownership"},
	)

	OverdueVendorTickets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slanotifier_overdue_vendor_tickets",
			Help: "Number of overdue vendor tickets in the last run",
		},
	)

	UnmappedValues = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slanotifier_unmapped_values_total",
			Help: "Tickets whose status or category had no lookup entry",
		},
		[]string{"field"},
	)

	// Notification metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slanotifier_notifications_total",
			Help: "Total notification send attempts by category and status",
		},
		[]string{"category", "status"},
	)

	NotificationSendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slanotifier_notification_send_duration_seconds",
			Help:    "Duration of notification sends",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"category"},
	)

	DispatchRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slanotifier_dispatch_records_total",
			Help: "Total number of dispatch log rows written",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slanotifier_http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		},
		[]string{"route", "method", "code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "slanotifier_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slanotifier_websocket_clients",
			Help: "Connected websocket clients",
		},
	)
)
