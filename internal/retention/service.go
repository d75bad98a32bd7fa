// Package retention schedules and executes data disposal. Subject records get
// a deletion obligation when they are created; a periodic sweep executes due
// obligations and records each disposal in the audit ledger. The audit trail
// itself is never swept.
package retention

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"medvault/internal/audit"
	"medvault/internal/platform/metrics"
	"medvault/pkg/platform/sentinel"
)

// DefaultRetentionYears matches the common minimum for medical records.
const DefaultRetentionYears = 6

type Service struct {
	store        Store
	subjects     SubjectDeleter
	ledger       *audit.Ledger
	logger       *slog.Logger
	metrics      *metrics.Metrics
	defaultYears int
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultYears overrides the retention period applied when a caller does
// not specify one. Non-positive values are ignored.
func WithDefaultYears(years int) Option {
	return func(s *Service) {
		if years > 0 {
			s.defaultYears = years
		}
	}
}

func NewService(store Store, subjects SubjectDeleter, ledger *audit.Ledger, logger *slog.Logger, m *metrics.Metrics, opts ...Option) *Service {
	s := &Service{
		store:        store,
		subjects:     subjects,
		ledger:       ledger,
		logger:       logger,
		metrics:      m,
		defaultYears: DefaultRetentionYears,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScheduleDeletion registers a future-deletion obligation for a subject row.
// years <= 0 selects the default retention period. Scheduling is idempotent
// per subject row: if an active obligation already exists, the call is a
// no-op and the existing date stands.
func (s *Service) ScheduleDeletion(ctx context.Context, table, recordID string, years int) error {
	if table == "" || recordID == "" {
		return errors.New("table and record id are required")
	}
	if years <= 0 {
		years = s.defaultYears
	}

	now := time.Now().UTC()
	record := Record{
		ID:                    uuid.NewString(),
		TableName:             table,
		RecordID:              recordID,
		ScheduledDeletionDate: now.AddDate(years, 0, 0),
		Status:                StatusScheduled,
		CreatedAt:             now,
	}

	err := s.store.Schedule(ctx, record)
	if errors.Is(err, sentinel.ErrConflict) {
		s.logger.DebugContext(ctx, "retention already scheduled",
			"table", table, "record_id", recordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("schedule deletion: %w", err)
	}
	return nil
}

// ExecuteDue runs one sweep over all due obligations. Each record is claimed
// with a conditional status update before its subject row is deleted, so a
// second sweep starting mid-run never double-processes a record. Per-record
// failures are logged and counted; they do not abort the sweep.
func (s *Service) ExecuteDue(ctx context.Context) (Result, error) {
	ctx, span := otel.Tracer("medvault/retention").Start(ctx, "retention.sweep")
	defer span.End()

	now := time.Now().UTC()
	due, err := s.store.ListDue(ctx, now)
	if err != nil {
		return Result{}, fmt.Errorf("list due retention records: %w", err)
	}

	var result Result
	for _, record := range due {
		claimed, err := s.store.Claim(ctx, record.ID, now)
		if err != nil {
			result.Failed++
			s.logger.ErrorContext(ctx, "retention claim failed",
				"error", err, "table", record.TableName, "record_id", record.RecordID)
			continue
		}
		if !claimed {
			// Another sweep got here first.
			continue
		}

		if err := s.subjects.DeleteSubject(ctx, record.TableName, record.RecordID); err != nil {
			result.Failed++
			if s.metrics != nil {
				s.metrics.RetentionFailuresTotal.Inc()
			}
			s.logger.ErrorContext(ctx, "retention deletion failed",
				"error", err, "table", record.TableName, "record_id", record.RecordID)
			if releaseErr := s.store.Release(ctx, record.ID); releaseErr != nil {
				s.logger.ErrorContext(ctx, "retention release failed",
					"error", releaseErr, "record_id", record.ID)
			}
			continue
		}

		result.Deleted++
		if s.metrics != nil {
			s.metrics.RetentionDeletionsTotal.Inc()
		}
		s.logger.InfoContext(ctx, "retention deletion executed",
			"table", record.TableName, "record_id", record.RecordID)
		s.ledger.Record(ctx, audit.Event{
			EventType:    audit.EventPHIDelete,
			ResourceType: record.TableName,
			ResourceID:   record.RecordID,
			Action:       "Retention sweep deleted expired record",
			Outcome:      audit.OutcomeSuccess,
			PHIInvolved:  true,
		})
	}

	return result, nil
}

// RunSweeper executes ExecuteDue on the given interval until the context is
// cancelled. Intended to run under the process errgroup.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.ExecuteDue(ctx); err != nil {
				s.logger.ErrorContext(ctx, "retention sweep failed", "error", err)
			}
		}
	}
}
