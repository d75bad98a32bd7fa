package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"

	"medvault/internal/audit"
	"medvault/internal/platform/metrics"
	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/httputil"
	"medvault/pkg/platform/middleware/metadata"
)

// Middleware applies the per-IP budget to every request it wraps.
type Middleware struct {
	store   WindowStore
	limit   int
	ledger  *audit.Ledger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewMiddleware(store WindowStore, limit int, ledger *audit.Ledger, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	if limit <= 0 {
		limit = DefaultCallsPerMinute
	}
	return &Middleware{store: store, limit: limit, ledger: ledger, logger: logger, metrics: m}
}

// Handler admits or rejects the request. Store failures fail open: losing
// rate limiting briefly beats refusing all traffic.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := metadata.GetClientIP(ctx)
		if ip == "" {
			ip = r.RemoteAddr
		}

		result, err := m.store.Allow(ctx, ip, m.limit, Window)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			if m.metrics != nil {
				m.metrics.RateLimitDenialsTotal.Inc()
			}
			if m.ledger != nil {
				m.ledger.Record(ctx, audit.Event{
					EventType: audit.EventUnauthorizedAccess,
					Action:    "Rate limit exceeded for " + r.URL.Path,
					Outcome:   audit.OutcomeFailure,
				})
			}
			w.Header().Set("Retry-After", strconv.FormatInt(int64(Window.Seconds()), 10))
			httputil.WriteError(w, dErrors.New(dErrors.CodeTooManyRequests,
				"too many requests, please try again later"))
			return
		}

		next.ServeHTTP(w, r)
	})
}
