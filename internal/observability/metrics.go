package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label values are drawn from small fixed sets (flow names,
// form names, field names, API methods, platform error codes) to keep
// cardinality bounded.
var (
	// RemindersScheduled counts messages handed to chat.scheduleMessage by
	// flow ("reminder", "event", "event_early").
	RemindersScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_scheduled_total",
			Help: "Total number of scheduled messages created, by flow.",
		},
		[]string{"flow"},
	)

	// GatewayFailures counts failed platform calls by API method and code.
	GatewayFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_failures_total",
			Help: "Total number of failed chat platform API calls.",
		},
		[]string{"op", "code"},
	)

	// ValidationRejections counts inline form errors by form and field.
	ValidationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_validation_rejections_total",
			Help: "Total number of form submissions rejected with inline errors.",
		},
		[]string{"form", "field"},
	)

	// DuplicateDeliveries counts submissions skipped by the delivery ledger.
	DuplicateDeliveries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "duplicate_deliveries_total",
			Help: "Total number of redelivered submissions that were ignored.",
		},
	)
)

func init() {
	prometheus.MustRegister(RemindersScheduled, GatewayFailures, ValidationRejections, DuplicateDeliveries)
}
