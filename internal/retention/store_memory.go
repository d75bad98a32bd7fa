package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"medvault/pkg/platform/sentinel"
)

// InMemoryStore keeps retention obligations in process memory.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*Record)}
}

func (s *InMemoryStore) Schedule(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.TableName == record.TableName &&
			existing.RecordID == record.RecordID &&
			existing.Status == StatusScheduled {
			return fmt.Errorf("active obligation for %s/%s: %w",
				record.TableName, record.RecordID, sentinel.ErrConflict)
		}
	}
	copied := record
	s.records[record.ID] = &copied
	return nil
}

func (s *InMemoryStore) ListDue(_ context.Context, now time.Time) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []Record
	for _, record := range s.records {
		if record.Status == StatusScheduled && !record.ScheduledDeletionDate.After(now) {
			due = append(due, *record)
		}
	}
	return due, nil
}

func (s *InMemoryStore) Claim(_ context.Context, id string, deletedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok || record.Status != StatusScheduled {
		return false, nil
	}
	record.Status = StatusCompleted
	t := deletedAt
	record.DeletedAt = &t
	return true, nil
}

func (s *InMemoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.Status = StatusScheduled
	record.DeletedAt = nil
	return nil
}

// Get returns a copy of a record by id. Test helper.
func (s *InMemoryStore) Get(id string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// All returns copies of every record. Test helper.
func (s *InMemoryStore) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, *record)
	}
	return out
}
