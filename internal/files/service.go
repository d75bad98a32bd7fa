// Package files implements the ingestion pipeline for uploaded documents:
// validation, categorization, encrypted storage for PHI-bearing categories,
// audited download, and secure deletion.
package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	// Registered so image metadata extraction covers the common upload formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/files/blob"
	"medvault/internal/platform/metrics"
	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/middleware/metadata"
	"medvault/pkg/platform/sentinel"
)

// RetentionTable is the subject-table name under which uploaded files are
// registered with the retention scheduler.
const RetentionTable = "file_uploads"

// RetentionScheduler registers a stored file for scheduled deletion. Satisfied
// by the retention service; an interface here keeps the dependency one-way.
type RetentionScheduler interface {
	ScheduleDeletion(ctx context.Context, table, recordID string, years int) error
}

// UploadRequest carries one incoming file.
type UploadRequest struct {
	Filename string
	Size     int64
	Body     io.ReadSeeker

	// Category, when set and valid, overrides automatic categorization.
	Category     string
	ContactID    string
	UploadSource string
	ActorEmail   string
}

// Service orchestrates the file pipeline.
type Service struct {
	validator *Validator
	blobs     blob.Store
	store     MetadataStore
	access    AccessLogger
	engine    *crypto.Engine
	ledger    *audit.Ledger
	retention RetentionScheduler
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewService(
	validator *Validator,
	blobs blob.Store,
	store MetadataStore,
	access AccessLogger,
	engine *crypto.Engine,
	ledger *audit.Ledger,
	retention RetentionScheduler,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		validator: validator,
		blobs:     blobs,
		store:     store,
		access:    access,
		engine:    engine,
		ledger:    ledger,
		retention: retention,
		logger:    logger,
		metrics:   m,
	}
}

// Upload validates, categorizes, and stores one file. PHI-bearing categories
// are encrypted before they touch the blob store. The returned row reflects
// the persisted metadata.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (UploadedFile, error) {
	ctx, span := otel.Tracer("medvault/files").Start(ctx, "files.upload")
	defer span.End()

	result, err := s.validator.Validate(req.Filename, req.Size, req.Body)
	if err != nil {
		s.recordUploadFailure(ctx, req, "validation rejected upload")
		return UploadedFile{}, err
	}

	category := Categorize(req.Filename, result.MIMEType)
	if req.Category != "" {
		if override, ok := ParseCategory(req.Category); ok {
			category = override
		}
	}
	span.SetAttributes(attribute.String("file.category", string(category)))

	body, err := io.ReadAll(req.Body)
	if err != nil {
		s.recordUploadFailure(ctx, req, "reading upload body failed")
		return UploadedFile{}, s.internalUploadError(ctx, "read upload body", err)
	}

	file := UploadedFile{
		ID:               uuid.New().String(),
		OriginalFilename: req.Filename,
		SizeBytes:        result.Size,
		MIMEType:         result.MIMEType,
		Category:         category,
		IsPHI:            category.IsPHI(),
		ContactID:        req.ContactID,
		UploadSource:     req.UploadSource,
		SourceIP:         metadata.GetClientIP(ctx),
		UserAgent:        metadata.GetUserAgent(ctx),
		Status:           StatusUploaded,
		Metadata:         extractMetadata(result.MIMEType, body),
		CreatedAt:        time.Now().UTC(),
	}
	file.StoredPath = fmt.Sprintf("%s/%s%s", category, file.ID, result.Extension)

	stored := body
	if file.IsPHI {
		stored, err = s.engine.EncryptBytes(body)
		if err != nil {
			s.recordUploadFailure(ctx, req, "encrypting upload failed")
			return UploadedFile{}, s.internalUploadError(ctx, "encrypt upload", err)
		}
	}

	if err := s.blobs.Write(ctx, file.StoredPath, stored); err != nil {
		s.recordUploadFailure(ctx, req, "writing upload body failed")
		return UploadedFile{}, s.internalUploadError(ctx, "store upload body", err)
	}

	if err := s.store.Insert(ctx, file); err != nil {
		// Keep blob and metadata consistent on the failure path.
		if wipeErr := s.blobs.Wipe(ctx, file.StoredPath); wipeErr != nil {
			s.logger.ErrorContext(ctx, "orphaned blob after metadata failure",
				"path", file.StoredPath, "error", wipeErr)
		}
		s.recordUploadFailure(ctx, req, "persisting upload metadata failed")
		return UploadedFile{}, s.internalUploadError(ctx, "persist upload metadata", err)
	}

	s.recordUploadSuccess(ctx, file)
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(string(file.Category)).Inc()
	}

	if file.IsPHI && s.retention != nil {
		// Best effort: a missed schedule is picked up by compliance review,
		// not worth failing the upload over.
		if err := s.retention.ScheduleDeletion(ctx, RetentionTable, file.ID, 0); err != nil {
			s.logger.ErrorContext(ctx, "scheduling file retention failed",
				"file_id", file.ID, "error", err)
		}
	}

	return file, nil
}

// Get returns metadata for one stored file.
func (s *Service) Get(ctx context.Context, id string) (UploadedFile, error) {
	file, err := s.store.Get(ctx, id)
	if err != nil {
		return UploadedFile{}, err
	}
	s.logFileAccess(ctx, file, "view")
	return file, nil
}

// Download returns the file's metadata and original bytes, decrypting
// PHI-bearing content.
func (s *Service) Download(ctx context.Context, id string) (UploadedFile, []byte, error) {
	ctx, span := otel.Tracer("medvault/files").Start(ctx, "files.download")
	defer span.End()

	file, err := s.store.Get(ctx, id)
	if err != nil {
		return UploadedFile{}, nil, err
	}

	body, err := s.blobs.Read(ctx, file.StoredPath)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return UploadedFile{}, nil, err
		}
		s.logger.ErrorContext(ctx, "reading file body failed", "file_id", id, "error", err)
		return UploadedFile{}, nil, dErrors.New(dErrors.CodeInternal, "file download failed")
	}

	if file.IsPHI {
		body, err = s.engine.DecryptBytes(body)
		if err != nil {
			s.logger.ErrorContext(ctx, "decrypting file body failed", "file_id", id, "error", err)
			return UploadedFile{}, nil, dErrors.New(dErrors.CodeInternal, "file download failed")
		}
		s.ledger.RecordPHIAccess(ctx, "", "file", file.ID)
	} else {
		s.ledger.Record(ctx, audit.Event{
			EventType:    audit.EventSystemAccess,
			ResourceType: "file",
			ResourceID:   file.ID,
			Action:       "Downloaded file",
			Outcome:      audit.OutcomeSuccess,
		})
	}
	s.logFileAccess(ctx, file, "download")

	return file, body, nil
}

// Delete soft-deletes the metadata row and securely wipes the stored bytes.
// The conditional status transition means concurrent deletes race safely: the
// loser sees not-found.
func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := otel.Tracer("medvault/files").Start(ctx, "files.delete")
	defer span.End()

	file, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.store.MarkDeleted(ctx, id, time.Now().UTC())
	if err != nil {
		s.logger.ErrorContext(ctx, "marking file deleted failed", "file_id", id, "error", err)
		return dErrors.New(dErrors.CodeInternal, "file deletion failed")
	}
	if !ok {
		return fmt.Errorf("file %s: %w", id, sentinel.ErrNotFound)
	}

	if err := s.blobs.Wipe(ctx, file.StoredPath); err != nil {
		// Metadata already says deleted; surface the stranded bytes loudly.
		s.logger.ErrorContext(ctx, "wiping file body failed",
			"file_id", id, "path", file.StoredPath, "error", err)
		return dErrors.New(dErrors.CodeInternal, "file deletion failed")
	}

	s.ledger.Record(ctx, audit.Event{
		EventType:    audit.EventPHIDelete,
		ResourceType: "file",
		ResourceID:   file.ID,
		Action:       "Deleted file " + file.OriginalFilename,
		Outcome:      audit.OutcomeSuccess,
		PHIInvolved:  file.IsPHI,
	})
	return nil
}

// maxListLimit caps a single listing page.
const maxListLimit = 100

// List returns non-deleted files matching the filter, capped at one page.
func (s *Service) List(ctx context.Context, filter Filter) ([]UploadedFile, error) {
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.store.List(ctx, filter)
}

// DeleteSubject permanently removes a file: metadata row, blob bytes, both.
// Wired into the retention sweep as the file_uploads subject deleter.
func (s *Service) DeleteSubject(ctx context.Context, id string) error {
	file, err := s.store.Get(ctx, id)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if err == nil {
		if err := s.blobs.Wipe(ctx, file.StoredPath); err != nil {
			return err
		}
	}
	return s.store.Delete(ctx, id)
}

// logFileAccess appends to the access trail. Best effort, like the audit
// ledger's persistence: the read already happened.
func (s *Service) logFileAccess(ctx context.Context, file UploadedFile, accessType string) {
	if s.access == nil {
		return
	}
	err := s.access.LogAccess(ctx, file.ID, accessType, metadata.GetClientIP(ctx), metadata.GetUserAgent(ctx))
	if err != nil {
		s.logger.ErrorContext(ctx, "recording file access failed", "file_id", file.ID, "error", err)
	}
}

func (s *Service) recordUploadSuccess(ctx context.Context, file UploadedFile) {
	eventType := audit.EventSystemAccess
	action := "Uploaded file " + file.OriginalFilename
	if file.IsPHI {
		eventType = audit.EventPHICreate
		action = "Uploaded PHI file " + file.OriginalFilename
	}
	s.ledger.Record(ctx, audit.Event{
		EventType:    eventType,
		ResourceType: "file",
		ResourceID:   file.ID,
		Action:       action,
		Outcome:      audit.OutcomeSuccess,
		PHIInvolved:  file.IsPHI,
		Details: map[string]any{
			"category":  string(file.Category),
			"mime_type": file.MIMEType,
			"size":      file.SizeBytes,
		},
	})
}

func (s *Service) recordUploadFailure(ctx context.Context, req UploadRequest, reason string) {
	s.ledger.Record(ctx, audit.Event{
		EventType:    audit.EventSystemAccess,
		ResourceType: "file",
		Action:       "Upload of " + req.Filename + " rejected",
		Outcome:      audit.OutcomeFailure,
		Details:      map[string]any{"reason": reason},
	})
}

// internalUploadError logs the real cause and returns the generic client
// error: storage-layer details never leak to uploaders.
func (s *Service) internalUploadError(ctx context.Context, step string, err error) error {
	s.logger.ErrorContext(ctx, "file upload failed", "step", step, "error", err)
	return dErrors.New(dErrors.CodeInternal, "file upload failed")
}

// extractMetadata pulls image dimensions when the body decodes as an image.
// Failures are silent: metadata is advisory.
func extractMetadata(mimeType string, body []byte) Metadata {
	if majorType(mimeType) != "image" {
		return Metadata{}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		return Metadata{}
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height}
}
