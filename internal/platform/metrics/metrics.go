package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the workflow engine.
type Metrics struct {
	TransitionsTotal       *prometheus.CounterVec
	ActionDuration         *prometheus.HistogramVec
	DuplicatePaymentsTotal prometheus.Counter
	SnapshotsCreatedTotal  prometheus.Counter
	AuditAppendFailures    prometheus.Counter
	NotificationsPublished prometheus.Counter
	NotificationsDropped   prometheus.Counter
	ExpirySweepsTotal      prometheus.Counter
	ExpiredApplications    prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the metrics on the given registerer. Tests pass a fresh
// registry so repeated construction does not collide.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "certflow_transitions_total",
			Help: "Status transitions committed, by action and target status",
		}, []string{"action", "to_status"}),
		ActionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certflow_action_duration_seconds",
			Help:    "Latency of workflow orchestrator actions",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
		DuplicatePaymentsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_duplicate_payments_total",
			Help: "Payment confirmations ignored because the order id was already applied",
		}),
		SnapshotsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_snapshots_created_total",
			Help: "Immutable application snapshots written",
		}),
		AuditAppendFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_audit_append_failures_total",
			Help: "Audit trail appends that failed after a committed transition; requires reconciliation",
		}),
		NotificationsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_notifications_published_total",
			Help: "Notification events handed to the publisher",
		}),
		NotificationsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_notifications_dropped_total",
			Help: "Notification events dropped because the queue was full or retries were exhausted",
		}),
		ExpirySweepsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_expiry_sweeps_total",
			Help: "Expiry sweep runs where this instance held the lease",
		}),
		ExpiredApplications: factory.NewCounter(prometheus.CounterOpts{
			Name: "certflow_expired_applications_total",
			Help: "Applications moved to expired by the sweep",
		}),
	}
}
