package files

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"medvault/internal/audit"
	"medvault/internal/crypto"
	"medvault/internal/files/blob"
	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/sentinel"
)

type scheduleCall struct {
	Table    string
	RecordID string
	Years    int
}

type schedulerRecorder struct {
	mu    sync.Mutex
	calls []scheduleCall
}

func (r *schedulerRecorder) ScheduleDeletion(_ context.Context, table, recordID string, years int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, scheduleCall{Table: table, RecordID: recordID, Years: years})
	return nil
}

func (r *schedulerRecorder) Calls() []scheduleCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]scheduleCall{}, r.calls...)
}

type ServiceSuite struct {
	suite.Suite

	blobRoot   string
	store      *InMemoryStore
	auditStore *audit.InMemoryStore
	scheduler  *schedulerRecorder
	svc        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.blobRoot = s.T().TempDir()
	blobs, err := blob.NewDiskStore(s.blobRoot)
	s.Require().NoError(err)

	engine, err := crypto.New("test-passphrase", "test-salt")
	s.Require().NoError(err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.scheduler = &schedulerRecorder{}

	ledger := audit.NewLedger(s.auditStore, logger)
	s.svc = NewService(NewValidator(0), blobs, s.store, s.store, engine, ledger, s.scheduler, logger, nil)
}

func (s *ServiceSuite) upload(req UploadRequest) UploadedFile {
	file, err := s.svc.Upload(context.Background(), req)
	s.Require().NoError(err)
	return file
}

func pdfUpload(filename, body string) UploadRequest {
	return UploadRequest{
		Filename: filename,
		Size:     int64(len(body)),
		Body:     bytes.NewReader([]byte(body)),
	}
}

func (s *ServiceSuite) auditEvents(eventType audit.EventType) []audit.Event {
	var out []audit.Event
	for _, event := range s.auditStore.All() {
		if event.EventType == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (s *ServiceSuite) TestUploadMedicalRecordEncryptedAtRest() {
	body := "%PDF-1.4 patient chart for review"
	file := s.upload(pdfUpload("medical_record_scan.pdf", body))

	s.Equal(CategoryMedicalRecord, file.Category)
	s.True(file.IsPHI)
	s.Equal(StatusUploaded, file.Status)
	s.Equal("application/pdf", file.MIMEType)

	// On-disk bytes must not be the plaintext.
	stored, err := os.ReadFile(filepath.Join(s.blobRoot, filepath.FromSlash(file.StoredPath)))
	s.Require().NoError(err)
	s.NotEqual([]byte(body), stored)
	s.NotContains(string(stored), "patient chart")

	events := s.auditEvents(audit.EventPHICreate)
	s.Require().Len(events, 1)
	s.Equal(audit.OutcomeSuccess, events[0].Outcome)
	s.True(events[0].PHIInvolved)
	s.Equal(file.ID, events[0].ResourceID)

	calls := s.scheduler.Calls()
	s.Require().Len(calls, 1)
	s.Equal(RetentionTable, calls[0].Table)
	s.Equal(file.ID, calls[0].RecordID)
}

func (s *ServiceSuite) TestUploadPhotoStoredPlainWithDimensions() {
	img := image.NewRGBA(image.Rect(0, 0, 12, 8))
	var buf bytes.Buffer
	s.Require().NoError(png.Encode(&buf, img))
	body := buf.Bytes()

	file := s.upload(UploadRequest{
		Filename: "holiday.png",
		Size:     int64(len(body)),
		Body:     bytes.NewReader(body),
	})

	s.Equal(CategoryPhoto, file.Category)
	s.False(file.IsPHI)
	s.Equal(12, file.Metadata.Width)
	s.Equal(8, file.Metadata.Height)

	stored, err := os.ReadFile(filepath.Join(s.blobRoot, filepath.FromSlash(file.StoredPath)))
	s.Require().NoError(err)
	s.Equal(body, stored)

	s.Empty(s.scheduler.Calls())
	s.Require().Len(s.auditEvents(audit.EventSystemAccess), 1)
}

func (s *ServiceSuite) TestUploadCategoryOverride() {
	s.Run("valid override wins", func() {
		req := pdfUpload("scan001.pdf", "%PDF-1.4 unlabeled scan")
		req.Category = "medical_record"
		file := s.upload(req)
		s.Equal(CategoryMedicalRecord, file.Category)
		s.True(file.IsPHI)
	})

	s.Run("invalid override ignored", func() {
		req := pdfUpload("scan002.pdf", "%PDF-1.4 unlabeled scan")
		req.Category = "top_secret"
		file := s.upload(req)
		s.Equal(CategoryDocument, file.Category)
	})
}

func (s *ServiceSuite) TestUploadValidationFailureAudited() {
	req := pdfUpload("malware.exe", "MZ")
	_, err := s.svc.Upload(context.Background(), req)

	var dErr dErrors.Error
	s.Require().ErrorAs(err, &dErr)
	s.Equal(dErrors.CodeUnsupportedMedia, dErr.Code)

	events := s.auditEvents(audit.EventSystemAccess)
	s.Require().Len(events, 1)
	s.Equal(audit.OutcomeFailure, events[0].Outcome)

	listed, err := s.svc.List(context.Background(), Filter{})
	s.Require().NoError(err)
	s.Empty(listed)
}

func (s *ServiceSuite) TestDownloadReturnsOriginalBytes() {
	body := "%PDF-1.4 lab panel results"
	file := s.upload(pdfUpload("lab_results.pdf", body))

	got, data, err := s.svc.Download(context.Background(), file.ID)
	s.Require().NoError(err)
	s.Equal([]byte(body), data)
	s.Equal(file.ID, got.ID)

	events := s.auditEvents(audit.EventPHIAccess)
	s.Require().Len(events, 1)
	s.Equal(file.ID, events[0].ResourceID)

	accesses := s.store.Accesses()
	s.Require().Len(accesses, 1)
	s.Equal("download", accesses[0].AccessType)
	s.Equal(file.ID, accesses[0].FileID)
}

func (s *ServiceSuite) TestDownloadMissingFile() {
	_, _, err := s.svc.Download(context.Background(), "no-such-id")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *ServiceSuite) TestDeleteWipesBytesAndAudits() {
	file := s.upload(pdfUpload("mri_report.pdf", "%PDF-1.4 imaging findings"))
	fullPath := filepath.Join(s.blobRoot, filepath.FromSlash(file.StoredPath))

	s.Require().NoError(s.svc.Delete(context.Background(), file.ID))

	_, statErr := os.Stat(fullPath)
	s.True(os.IsNotExist(statErr))

	_, err := s.svc.Get(context.Background(), file.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	// Second delete races against nothing and reports not-found.
	s.Require().ErrorIs(s.svc.Delete(context.Background(), file.ID), sentinel.ErrNotFound)

	events := s.auditEvents(audit.EventPHIDelete)
	s.Require().Len(events, 1)
	s.True(events[0].PHIInvolved)
}

func (s *ServiceSuite) TestGetLogsViewAccess() {
	file := s.upload(pdfUpload("treatment_plan.pdf", "%PDF-1.4 plan"))

	_, err := s.svc.Get(context.Background(), file.ID)
	s.Require().NoError(err)

	accesses := s.store.Accesses()
	s.Require().Len(accesses, 1)
	s.Equal("view", accesses[0].AccessType)
}

func (s *ServiceSuite) TestListFilters() {
	a := pdfUpload("xray_arm.pdf", "%PDF-1.4 a")
	a.ContactID = "contact-1"
	first := s.upload(a)

	b := pdfUpload("invoice.pdf", "%PDF-1.4 b")
	b.ContactID = "contact-2"
	s.upload(b)

	byContact, err := s.svc.List(context.Background(), Filter{ContactID: "contact-1"})
	s.Require().NoError(err)
	s.Require().Len(byContact, 1)
	s.Equal(first.ID, byContact[0].ID)

	byCategory, err := s.svc.List(context.Background(), Filter{Category: CategoryMedicalRecord})
	s.Require().NoError(err)
	s.Require().Len(byCategory, 1)
	s.Equal(first.ID, byCategory[0].ID)
}

func (s *ServiceSuite) TestListCapsPageSize() {
	for i := 0; i < 120; i++ {
		err := s.store.Insert(context.Background(), UploadedFile{
			ID:               fmt.Sprintf("file-%03d", i),
			OriginalFilename: "note.txt",
			Category:         CategoryDocument,
			Status:           StatusUploaded,
			CreatedAt:        time.Now().UTC(),
		})
		s.Require().NoError(err)
	}

	listed, err := s.svc.List(context.Background(), Filter{})
	s.Require().NoError(err)
	s.Len(listed, 100)

	capped, err := s.svc.List(context.Background(), Filter{Limit: 500})
	s.Require().NoError(err)
	s.Len(capped, 100)

	page, err := s.svc.List(context.Background(), Filter{Limit: 5})
	s.Require().NoError(err)
	s.Len(page, 5)
}

func (s *ServiceSuite) TestDeleteSubjectRemovesRowAndBytes() {
	file := s.upload(pdfUpload("prescription_history.pdf", "%PDF-1.4 rx"))
	fullPath := filepath.Join(s.blobRoot, filepath.FromSlash(file.StoredPath))

	s.Require().NoError(s.svc.DeleteSubject(context.Background(), file.ID))

	_, statErr := os.Stat(fullPath)
	s.True(os.IsNotExist(statErr))
	_, ok := s.store.Raw(file.ID)
	s.False(ok)

	// Idempotent once the row is gone.
	s.Require().NoError(s.svc.DeleteSubject(context.Background(), file.ID))
}

func TestServiceUploadRewindsAfterValidation(t *testing.T) {
	// Sanity check independent of the suite wiring: the validator sniffs and
	// the pipeline must still persist the complete body.
	body := []byte("%PDF-1.4 " + string(bytes.Repeat([]byte("x"), 2048)))
	v := NewValidator(0)
	reader := bytes.NewReader(body)

	_, err := v.Validate("big.pdf", int64(len(body)), reader)
	require.NoError(t, err)

	rest, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, body, rest)
}
