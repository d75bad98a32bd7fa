package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore tracks request timestamps per key. Suitable for a single
// instance; distributed deployments use RedisStore.
type InMemoryStore struct {
	mu      sync.Mutex
	windows map[string]*slidingWindow
	ops     int
}

// sweepEvery bounds how often Allow walks the whole map evicting windows
// whose entries have all expired. Without the sweep the key set grows with
// every distinct client IP ever seen.
const sweepEvery = 256

type slidingWindow struct {
	timestamps []time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{windows: make(map[string]*slidingWindow)}
}

func (s *InMemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.ops++
	if s.ops%sweepEvery == 0 {
		s.evictIdle(now, window)
	}

	sw := s.windows[key]
	if sw == nil {
		sw = &slidingWindow{}
		s.windows[key] = sw
	}
	sw.prune(now, window)

	if len(sw.timestamps) >= limit {
		return Result{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   sw.timestamps[0].Add(window),
		}, nil
	}

	sw.timestamps = append(sw.timestamps, now)
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - len(sw.timestamps),
		ResetAt:   sw.timestamps[0].Add(window),
	}, nil
}

func (s *InMemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}

// evictIdle deletes windows whose every timestamp has expired, reclaiming the
// map entries of clients that stopped sending requests. Must be called with
// the store lock held.
func (s *InMemoryStore) evictIdle(now time.Time, window time.Duration) {
	for key, sw := range s.windows {
		sw.prune(now, window)
		if len(sw.timestamps) == 0 {
			delete(s.windows, key)
		}
	}
}

// prune drops timestamps that have slid out of the window. Must be called
// with the store lock held.
func (sw *slidingWindow) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}
