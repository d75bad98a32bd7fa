package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in process memory. Used in tests and in
// environments without a database; events are still mirrored to the log
// stream by the ledger.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.events) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(s.events)-start)
	// Newest first, matching the postgres store ordering.
	for i, event := range s.events[start:] {
		out[len(out)-1-i] = event
	}
	return out, nil
}

// All returns every recorded event in append order. Test helper.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
