package breach

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore keeps incidents in process memory.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows []Incident
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Insert(_ context.Context, incident Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, incident)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, limit int) ([]Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]Incident{}, s.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
