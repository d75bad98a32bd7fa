package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the compliance core.
type Metrics struct {
	UploadsTotal            *prometheus.CounterVec
	AuditEventsTotal        *prometheus.CounterVec
	AuditPersistFailures    prometheus.Counter
	RetentionDeletionsTotal prometheus.Counter
	RetentionFailuresTotal  prometheus.Counter
	RateLimitDenialsTotal   prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		UploadsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medvault_file_uploads_total",
			Help: "Total uploaded files by category",
		}, []string{"category"}),
		AuditEventsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "medvault_audit_events_total",
			Help: "Total audit events recorded by type and outcome",
		}, []string{"event_type", "outcome"}),
		AuditPersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medvault_audit_persist_failures_total",
			Help: "Audit events that could not be persisted to the durable store",
		}),
		RetentionDeletionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medvault_retention_deletions_total",
			Help: "Subject records deleted by the retention sweep",
		}),
		RetentionFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medvault_retention_failures_total",
			Help: "Retention sweep deletions that failed",
		}),
		RateLimitDenialsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "medvault_ratelimit_denials_total",
			Help: "Requests denied by the per-client rate limiter",
		}),
	}
}
