// Package breach tracks reported or suspected disclosures of protected data.
// Every report opens an incident in investigating status and lands in the
// audit ledger as a data_breach_attempt with a WARNING outcome, so the
// compliance stream flags it even if nobody reads the incident table.
package breach

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"medvault/internal/audit"
	dErrors "medvault/pkg/domain-errors"
	strutil "medvault/pkg/platform/strings"
)

// Service handles breach intake and review listing.
type Service struct {
	store  Store
	ledger *audit.Ledger
	logger *slog.Logger
}

func NewService(store Store, ledger *audit.Ledger, logger *slog.Logger) *Service {
	return &Service{store: store, ledger: ledger, logger: logger}
}

// Report opens a new incident.
func (s *Service) Report(ctx context.Context, report Report) (Incident, error) {
	if strings.TrimSpace(report.Description) == "" {
		return Incident{}, dErrors.New(dErrors.CodeBadRequest, "description is required")
	}
	if report.AffectedCount < 0 {
		return Incident{}, dErrors.New(dErrors.CodeBadRequest, "affected individuals count cannot be negative")
	}

	now := time.Now().UTC()
	incidentDate := report.IncidentDate
	if incidentDate.IsZero() {
		incidentDate = now
	}

	incident := Incident{
		ID:               uuid.New().String(),
		IncidentDate:     incidentDate,
		IncidentType:     strings.TrimSpace(report.IncidentType),
		Description:      strings.TrimSpace(report.Description),
		AffectedCount:    report.AffectedCount,
		PHITypesInvolved: strutil.DedupeAndTrim(report.PHITypesInvolved),
		Cause:            strings.TrimSpace(report.Cause),
		Severity:         strings.TrimSpace(report.Severity),
		ReportedBy:       strings.TrimSpace(report.ReportedBy),
		Status:           StatusInvestigating,
		ReportedAt:       now,
	}

	if err := s.store.Insert(ctx, incident); err != nil {
		s.logger.ErrorContext(ctx, "persisting breach incident failed",
			"incident_id", incident.ID, "error", err)
		return Incident{}, dErrors.New(dErrors.CodeInternal, "breach report failed")
	}

	s.ledger.Record(ctx, audit.Event{
		EventType:    audit.EventDataBreachAttempt,
		ActorEmail:   incident.ReportedBy,
		ResourceType: "breach_incident",
		ResourceID:   incident.ID,
		Action:       "Reported potential data breach",
		Outcome:      audit.OutcomeWarning,
		PHIInvolved:  true,
		Details: map[string]any{
			"incident_type":        incident.IncidentType,
			"severity":             incident.Severity,
			"affected_individuals": incident.AffectedCount,
		},
	})

	return incident, nil
}

// List returns recent incidents, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Incident, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.List(ctx, limit)
}
