package files

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"medvault/pkg/platform/sentinel"
)

// AccessEntry is one view/download record. Memory-store representation.
type AccessEntry struct {
	FileID     string
	AccessType string
	SourceIP   string
	UserAgent  string
	At         time.Time
}

// InMemoryStore keeps file metadata in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	rows     map[string]*UploadedFile
	accesses []AccessEntry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]*UploadedFile)}
}

func (s *InMemoryStore) Insert(_ context.Context, file UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[file.ID]; exists {
		return fmt.Errorf("file %s: %w", file.ID, sentinel.ErrConflict)
	}
	copied := file
	s.rows[file.ID] = &copied
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok || row.Status == StatusDeleted {
		return UploadedFile{}, fmt.Errorf("file %s: %w", id, sentinel.ErrNotFound)
	}
	return *row, nil
}

func (s *InMemoryStore) MarkDeleted(_ context.Context, id string, when time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok || row.Status != StatusUploaded {
		return false, nil
	}
	row.Status = StatusDeleted
	t := when
	row.DeletedAt = &t
	return true, nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]UploadedFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []UploadedFile
	for _, row := range s.rows {
		if row.Status == StatusDeleted {
			continue
		}
		if filter.ContactID != "" && row.ContactID != filter.ContactID {
			continue
		}
		if filter.Category != "" && row.Category != filter.Category {
			continue
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func (s *InMemoryStore) LogAccess(_ context.Context, fileID, accessType, sourceIP, userAgent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accesses = append(s.accesses, AccessEntry{
		FileID:     fileID,
		AccessType: accessType,
		SourceIP:   sourceIP,
		UserAgent:  userAgent,
		At:         time.Now().UTC(),
	})
	return nil
}

// Accesses returns the recorded access trail. Test helper.
func (s *InMemoryStore) Accesses() []AccessEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AccessEntry{}, s.accesses...)
}

// Raw returns the row regardless of soft-deletion. Test helper.
func (s *InMemoryStore) Raw(id string) (UploadedFile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[id]
	if !ok {
		return UploadedFile{}, false
	}
	return *row, true
}
