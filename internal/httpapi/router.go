package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medvault/internal/ratelimit"
	"medvault/pkg/platform/middleware/metadata"
	"medvault/pkg/platform/middleware/secheaders"
)

// NewRouter assembles the full handler tree. Client metadata runs first so
// rate limiting and audit events see the real client IP; the security header
// policy wraps everything, error responses included. /healthz and /metrics
// stay outside the rate limit so probes and scrapes never get throttled.
func NewRouter(h *Handlers, limiter *ratelimit.Middleware, admin *AdminGuard) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(secheaders.Apply)

	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Handler)

		r.Post("/files", h.handleUploadFile)
		r.Get("/files", h.handleListFiles)
		r.Get("/files/{id}", h.handleGetFile)
		r.Get("/files/{id}/download", h.handleDownloadFile)
		r.Delete("/files/{id}", h.handleDeleteFile)

		r.Post("/contact", h.handleSubmitContact)

		r.Route("/hipaa", func(r chi.Router) {
			r.Use(admin.Middleware)

			r.Get("/contact-submissions", h.handleListContacts)
			r.Get("/contact-submissions/{id}", h.handleGetContact)
			r.Post("/retention/execute", h.handleExecuteRetention)
			r.Get("/audit-logs", h.handleListAuditLogs)
			r.Post("/breach", h.handleReportBreach)
			r.Get("/breach", h.handleListBreaches)
		})
	})

	return r
}
