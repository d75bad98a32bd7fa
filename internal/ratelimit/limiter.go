// Package ratelimit enforces a sliding-window request budget per client IP.
// The window is continuous, not a fixed minute boundary, so a burst straddling
// two calendar minutes cannot double the effective budget.
package ratelimit

import (
	"context"
	"time"
)

// DefaultCallsPerMinute is the per-IP budget applied when no limit is
// configured.
const DefaultCallsPerMinute = 100

// Window is the sliding interval over which calls are counted.
const Window = time.Minute

// Result describes one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// WindowStore counts requests per key over a sliding window. Allow records
// the request when admitted; a denied request is not recorded.
type WindowStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
	Reset(ctx context.Context, key string) error
}
