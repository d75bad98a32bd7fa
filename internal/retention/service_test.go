package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"medvault/internal/audit"
)

type ServiceSuite struct {
	suite.Suite
	store      *InMemoryStore
	auditStore *audit.InMemoryStore
	deleted    map[string]int
	deleters   FuncSubjectDeleter
	service    *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.auditStore = audit.NewInMemoryStore()
	s.deleted = map[string]int{}
	s.deleters = FuncSubjectDeleter{
		"contacts": func(_ context.Context, recordID string) error {
			s.deleted[recordID]++
			return nil
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := audit.NewLedger(s.auditStore, logger)
	s.service = NewService(s.store, s.deleters, ledger, logger, nil)
}

// scheduleDue inserts an obligation whose deletion date has already passed.
func (s *ServiceSuite) scheduleDue(recordID string) {
	err := s.store.Schedule(context.Background(), Record{
		ID:                    "ret-" + recordID,
		TableName:             "contacts",
		RecordID:              recordID,
		ScheduledDeletionDate: time.Now().UTC().Add(-time.Hour),
		Status:                StatusScheduled,
		CreatedAt:             time.Now().UTC().AddDate(-6, 0, 0),
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestScheduleDeletionDefaultsToSixYears() {
	err := s.service.ScheduleDeletion(context.Background(), "contacts", "c-1", 0)
	s.Require().NoError(err)

	records := s.store.All()
	s.Require().Len(records, 1)
	s.Equal(StatusScheduled, records[0].Status)

	want := time.Now().UTC().AddDate(DefaultRetentionYears, 0, 0)
	s.WithinDuration(want, records[0].ScheduledDeletionDate, time.Minute)
}

func (s *ServiceSuite) TestWithDefaultYearsOverridesPeriod() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ledger := audit.NewLedger(s.auditStore, logger)
	svc := NewService(s.store, s.deleters, ledger, logger, nil, WithDefaultYears(10))

	s.Require().NoError(svc.ScheduleDeletion(context.Background(), "contacts", "c-1", 0))

	records := s.store.All()
	s.Require().Len(records, 1)
	want := time.Now().UTC().AddDate(10, 0, 0)
	s.WithinDuration(want, records[0].ScheduledDeletionDate, time.Minute)
}

func (s *ServiceSuite) TestScheduleDeletionDeduplicates() {
	s.Require().NoError(s.service.ScheduleDeletion(context.Background(), "contacts", "c-1", 6))
	s.Require().NoError(s.service.ScheduleDeletion(context.Background(), "contacts", "c-1", 6))

	s.Len(s.store.All(), 1)
}

func (s *ServiceSuite) TestExecuteDueDeletesAndCompletes() {
	s.scheduleDue("c-1")
	s.scheduleDue("c-2")

	result, err := s.service.ExecuteDue(context.Background())
	s.Require().NoError(err)
	s.Equal(2, result.Deleted)
	s.Equal(0, result.Failed)
	s.Equal(1, s.deleted["c-1"])
	s.Equal(1, s.deleted["c-2"])

	for _, record := range s.store.All() {
		s.Equal(StatusCompleted, record.Status)
		s.NotNil(record.DeletedAt)
	}

	events := s.auditStore.All()
	s.Require().Len(events, 2)
	s.Equal(audit.EventPHIDelete, events[0].EventType)
	s.True(events[0].PHIInvolved)
}

func (s *ServiceSuite) TestExecuteDueIsIdempotent() {
	s.scheduleDue("c-1")

	first, err := s.service.ExecuteDue(context.Background())
	s.Require().NoError(err)
	s.Equal(1, first.Deleted)

	second, err := s.service.ExecuteDue(context.Background())
	s.Require().NoError(err)
	s.Equal(0, second.Deleted)
	s.Equal(0, second.Failed)
	s.Equal(1, s.deleted["c-1"], "completed record must never be revisited")
}

func (s *ServiceSuite) TestNotYetDueRecordsUntouched() {
	s.Require().NoError(s.service.ScheduleDeletion(context.Background(), "contacts", "c-future", 6))

	result, err := s.service.ExecuteDue(context.Background())
	s.Require().NoError(err)
	s.Equal(0, result.Deleted)
	s.Zero(s.deleted["c-future"])
}

func (s *ServiceSuite) TestPerRecordFailureDoesNotAbortSweep() {
	s.deleters["broken"] = func(context.Context, string) error {
		return errors.New("table locked")
	}
	s.scheduleDue("c-ok")
	s.Require().NoError(s.store.Schedule(context.Background(), Record{
		ID:                    "ret-bad",
		TableName:             "broken",
		RecordID:              "b-1",
		ScheduledDeletionDate: time.Now().UTC().Add(-time.Hour),
		Status:                StatusScheduled,
		CreatedAt:             time.Now().UTC(),
	}))

	result, err := s.service.ExecuteDue(context.Background())
	s.Require().NoError(err)
	s.Equal(1, result.Deleted)
	s.Equal(1, result.Failed)

	// The failed obligation is released for the next sweep.
	record, ok := s.store.Get("ret-bad")
	s.Require().True(ok)
	s.Equal(StatusScheduled, record.Status)
}
