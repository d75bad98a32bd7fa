package contact

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"medvault/pkg/platform/sentinel"
)

// InMemoryStore keeps submissions in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[string]Submission
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]Submission)}
}

func (s *InMemoryStore) Insert(_ context.Context, sub Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.rows[sub.ID]; exists {
		return fmt.Errorf("submission %s: %w", sub.ID, sentinel.ErrConflict)
	}
	s.rows[sub.ID] = sub
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.rows[id]
	if !ok {
		return Submission{}, fmt.Errorf("submission %s: %w", id, sentinel.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemoryStore) List(_ context.Context, limit int) ([]Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Submission, 0, len(s.rows))
	for _, sub := range s.rows {
		out = append(out, sub)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

// Raw returns the stored (encrypted) row. Test helper.
func (s *InMemoryStore) Raw(id string) (Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.rows[id]
	return sub, ok
}
