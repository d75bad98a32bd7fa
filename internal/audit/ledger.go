// Package audit implements the append-only ledger of security-relevant
// events. Every sensitive access or mutation in the system flows through
// Record; the ledger writes to the durable store and mirrors each event to
// the structured log stream.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"medvault/internal/platform/metrics"
	"medvault/pkg/platform/middleware/metadata"
)

// Ledger records audit events. Persistence failures are escalated to an
// error-level log line and a metrics counter but are never returned: an audit
// failure must not prevent or roll back the operation it describes. This is
// the one place where swallow-but-log-critically is the deliberate design.
type Ledger struct {
	store   Store
	sinks   []Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithSink adds a fan-out sink. Nil sinks are ignored.
func WithSink(sink Sink) Option {
	return func(l *Ledger) {
		if sink != nil {
			l.sinks = append(l.sinks, sink)
		}
	}
}

// WithMetrics wires the ledger counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) {
		l.metrics = m
	}
}

func NewLedger(store Store, logger *slog.Logger, opts ...Option) *Ledger {
	l := &Ledger{store: store, logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record persists an audit event and mirrors it to the log stream. It never
// returns an error.
func (l *Ledger) Record(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SourceIP == "" {
		event.SourceIP = metadata.GetClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = metadata.GetUserAgent(ctx)
	}
	l.enrichUserAgent(&event)

	l.logEvent(ctx, event)

	if l.metrics != nil {
		l.metrics.AuditEventsTotal.WithLabelValues(string(event.EventType), string(event.Outcome)).Inc()
	}

	if err := l.store.Append(ctx, event); err != nil {
		// Audit persistence failed. Maximally visible to operators, invisible
		// to the caller.
		l.logger.ErrorContext(ctx, "AUDIT LOGGING FAILED",
			"error", err,
			"event_type", event.EventType,
			"action", event.Action,
		)
		if l.metrics != nil {
			l.metrics.AuditPersistFailures.Inc()
		}
	}

	for _, sink := range l.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			l.logger.ErrorContext(ctx, "audit sink emit failed",
				"error", err,
				"event_type", event.EventType,
			)
		}
	}
}

// RecordPHIAccess is the convenience constructor for the highest-frequency
// event: someone read a PHI-bearing resource.
func (l *Ledger) RecordPHIAccess(ctx context.Context, actorEmail, resourceType, resourceID string) {
	l.Record(ctx, Event{
		EventType:    EventPHIAccess,
		ActorEmail:   actorEmail,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       "Accessed " + resourceType,
		Outcome:      OutcomeSuccess,
		PHIInvolved:  true,
	})
}

// RecordUnauthorizedAccess logs a rejected access attempt.
func (l *Ledger) RecordUnauthorizedAccess(ctx context.Context, resource string) {
	l.Record(ctx, Event{
		EventType:   EventUnauthorizedAccess,
		Action:      "Attempted unauthorized access to " + resource,
		Outcome:     OutcomeFailure,
		PHIInvolved: true,
	})
}

// ListRecent returns the newest events for compliance reporting.
func (l *Ledger) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return l.store.ListRecent(ctx, limit)
}

// enrichUserAgent adds a normalized browser/OS summary to the event details.
// Raw user-agent strings are noisy; compliance reviewers want the summary.
func (l *Ledger) enrichUserAgent(event *Event) {
	if event.UserAgent == "" {
		return
	}
	ua := useragent.New(event.UserAgent)
	name, version := ua.Browser()
	if name == "" {
		return
	}
	if event.Details == nil {
		event.Details = map[string]any{}
	}
	if _, ok := event.Details["browser"]; !ok {
		event.Details["browser"] = name
		event.Details["browser_version"] = version
		event.Details["os"] = ua.OS()
	}
}

func (l *Ledger) logEvent(ctx context.Context, event Event) {
	args := []any{
		"log_type", "audit",
		"event_type", event.EventType,
		"actor", event.ActorEmail,
		"source_ip", event.SourceIP,
		"action", event.Action,
		"outcome", event.Outcome,
		"phi_involved", event.PHIInvolved,
	}
	switch event.Outcome {
	case OutcomeFailure:
		l.logger.ErrorContext(ctx, "audit event", args...)
	case OutcomeWarning:
		l.logger.WarnContext(ctx, "audit event", args...)
	default:
		l.logger.InfoContext(ctx, "audit event", args...)
	}
}
