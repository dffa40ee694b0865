// Package metrics defines the Prometheus collectors exported by the ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "savings_ledger"

// Operation outcomes used as the "outcome" label
const (
	OutcomeCommitted = "committed"
	OutcomeRejected  = "rejected"
	OutcomeReplayed  = "replayed"
	OutcomeFailed    = "failed"
)

// EventsCommitted counts committed ledger events by type.
var EventsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "events_committed_total",
	Help:      "Total ledger events committed, by event type.",
}, []string{"event_type"})

// Operations counts ledger operations by name and outcome.
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Total ledger operations, by operation and outcome.",
}, []string{"operation", "outcome"})

// OperationDuration tracks how long each ledger operation takes.
var OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operation_duration_seconds",
	Help:      "Ledger operation latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"operation"})

// ReconciliationFailures counts failed reconciliation checks by check name.
var ReconciliationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "reconciliation",
	Name:      "check_failures_total",
	Help:      "Total reconciliation checks that did not pass.",
}, []string{"check"})

// ReportsGenerated counts generated tax reports by type.
var ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "tax",
	Name:      "reports_generated_total",
	Help:      "Total tax reports generated, by report type.",
}, []string{"report_type"})

// OutboxPublished counts outbox messages by publish result.
var OutboxPublished = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "outbox",
	Name:      "messages_total",
	Help:      "Total outbox messages handled, by result.",
}, []string{"result"})

// CommandsProcessed counts Kafka ledger commands by type and outcome.
var CommandsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "processor",
	Name:      "commands_total",
	Help:      "Total ledger commands consumed, by command type and outcome.",
}, []string{"command_type", "outcome"})

// HTTPRequests counts API requests by route and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests, by route, method and status.",
}, []string{"route", "method", "status"})

// HTTPDuration tracks API request latency.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
}, []string{"route", "method"})

// ObserveOperation records the outcome and latency of one ledger operation.
func ObserveOperation(operation, outcome string, started time.Time) {
	Operations.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
