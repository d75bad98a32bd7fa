// Package secheaders applies the fixed response header policy required for
// handling regulated medical data. The set is intentionally static: callers
// must not be able to weaken it per-route.
package secheaders

import "net/http"

var policy = map[string]string{
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "1; mode=block",
	"Content-Security-Policy":   "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'",
	"Referrer-Policy":           "strict-origin-when-cross-origin",
	"Permissions-Policy":        "geolocation=(), microphone=(), camera=()",
	"Cache-Control":             "no-store, no-cache, must-revalidate, private",
	"Pragma":                    "no-cache",
	"Expires":                   "0",
}

// Headers returns a copy of the policy, mostly for tests and documentation.
func Headers() map[string]string {
	out := make(map[string]string, len(policy))
	for k, v := range policy {
		out[k] = v
	}
	return out
}

// Apply sets the policy on every response before the handler runs, so the
// headers are present even when the handler writes an error status.
func Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range policy {
			w.Header().Set(k, v)
		}
		next.ServeHTTP(w, r)
	})
}
