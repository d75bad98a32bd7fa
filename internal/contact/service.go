// Package contact handles contact-form intake. Submissions carry direct
// identifiers, so the service encrypts them before persistence, schedules
// their retention-driven deletion, and audits every read.
package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/phi"
	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/middleware/metadata"
)

// RetentionTable is the subject-table name under which submissions are
// registered with the retention scheduler.
const RetentionTable = "contacts"

// RetentionScheduler registers a submission for scheduled deletion.
type RetentionScheduler interface {
	ScheduleDeletion(ctx context.Context, table, recordID string, years int) error
}

// Service orchestrates contact intake.
type Service struct {
	store      Store
	engine     *crypto.Engine
	classifier *phi.Classifier
	ledger     *audit.Ledger
	retention  RetentionScheduler
	logger     *slog.Logger
}

func NewService(
	store Store,
	engine *crypto.Engine,
	classifier *phi.Classifier,
	ledger *audit.Ledger,
	retention RetentionScheduler,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		engine:     engine,
		classifier: classifier,
		ledger:     ledger,
		retention:  retention,
		logger:     logger,
	}
}

// Submit validates, encrypts, and persists one submission. The returned copy
// carries plaintext fields for the response body.
func (s *Service) Submit(ctx context.Context, req SubmissionRequest) (Submission, error) {
	ctx, span := otel.Tracer("medvault/contact").Start(ctx, "contact.submit")
	defer span.End()

	if err := validate(req); err != nil {
		return Submission{}, err
	}

	sub := Submission{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Subject:   strings.TrimSpace(req.Subject),
		Message:   req.Message,
		Status:    StatusNew,
		SourceIP:  metadata.GetClientIP(ctx),
		UserAgent: metadata.GetUserAgent(ctx),
		CreatedAt: time.Now().UTC(),
	}

	encrypted, err := s.encrypt(sub)
	if err != nil {
		s.logFailure(ctx, "encrypting submission failed", sub, err)
		return Submission{}, dErrors.New(dErrors.CodeInternal, "contact submission failed")
	}

	if err := s.store.Insert(ctx, encrypted); err != nil {
		s.logFailure(ctx, "persisting submission failed", sub, err)
		return Submission{}, dErrors.New(dErrors.CodeInternal, "contact submission failed")
	}

	s.ledger.Record(ctx, audit.Event{
		EventType:    audit.EventPHICreate,
		ActorEmail:   sub.Email,
		ResourceType: "contact_submission",
		ResourceID:   sub.ID,
		Action:       "Submitted contact form",
		Outcome:      audit.OutcomeSuccess,
		PHIInvolved:  true,
	})

	if s.retention != nil {
		if err := s.retention.ScheduleDeletion(ctx, RetentionTable, sub.ID, 0); err != nil {
			s.logger.ErrorContext(ctx, "scheduling submission retention failed",
				"submission_id", sub.ID, "error", err)
		}
	}

	return sub, nil
}

// Get returns one submission with PHI fields decrypted and records the access.
func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return Submission{}, err
	}

	decrypted, err := s.decrypt(sub)
	if err != nil {
		s.logger.ErrorContext(ctx, "decrypting submission failed", "submission_id", id, "error", err)
		return Submission{}, dErrors.New(dErrors.CodeInternal, "contact lookup failed")
	}

	s.ledger.RecordPHIAccess(ctx, "", "contact_submission", id)
	return decrypted, nil
}

// List returns recent submissions, decrypted, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Submission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.store.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]Submission, 0, len(rows))
	for _, row := range rows {
		decrypted, err := s.decrypt(row)
		if err != nil {
			s.logger.ErrorContext(ctx, "decrypting submission failed",
				"submission_id", row.ID, "error", err)
			continue
		}
		out = append(out, decrypted)
	}

	s.ledger.RecordPHIAccess(ctx, "", "contact_submission", "list")
	return out, nil
}

// DeleteSubject removes a submission permanently. Wired into the retention
// sweep as the contacts subject deleter.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) encrypt(sub Submission) (Submission, error) {
	var err error
	if sub.Name, err = s.engine.Encrypt(sub.Name); err != nil {
		return Submission{}, fmt.Errorf("encrypt name: %w", err)
	}
	if sub.Email, err = s.engine.Encrypt(sub.Email); err != nil {
		return Submission{}, fmt.Errorf("encrypt email: %w", err)
	}
	if sub.Phone, err = s.engine.Encrypt(sub.Phone); err != nil {
		return Submission{}, fmt.Errorf("encrypt phone: %w", err)
	}
	return sub, nil
}

func (s *Service) decrypt(sub Submission) (Submission, error) {
	var err error
	if sub.Name, err = s.engine.Decrypt(sub.Name); err != nil {
		return Submission{}, fmt.Errorf("decrypt name: %w", err)
	}
	if sub.Email, err = s.engine.Decrypt(sub.Email); err != nil {
		return Submission{}, fmt.Errorf("decrypt email: %w", err)
	}
	if sub.Phone, err = s.engine.Decrypt(sub.Phone); err != nil {
		return Submission{}, fmt.Errorf("decrypt phone: %w", err)
	}
	return sub, nil
}

// logFailure writes the error with the submission redacted: log lines must
// never carry plaintext PHI.
func (s *Service) logFailure(ctx context.Context, msg string, sub Submission, err error) {
	redacted := s.classifier.RedactForLogging(map[string]any{
		"name":    sub.Name,
		"email":   sub.Email,
		"phone":   sub.Phone,
		"subject": sub.Subject,
	})
	s.logger.ErrorContext(ctx, msg, "error", err, "submission", redacted)
}

func validate(req SubmissionRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	if strings.TrimSpace(req.Email) == "" || !strings.Contains(req.Email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "a valid email is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return dErrors.New(dErrors.CodeBadRequest, "message is required")
	}
	return nil
}
