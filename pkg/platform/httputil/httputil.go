// Package httputil centralizes JSON rendering so every handler emits the same
// envelopes and internal error detail is stripped in exactly one place.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/sentinel"
)

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders a domain error as JSON. Sentinel errors from stores are
// translated first; anything unrecognized becomes an opaque internal_error.
// The error_description field is omitted for internal errors so backend detail
// never crosses the trust boundary.
func WriteError(w http.ResponseWriter, err error) {
	de := translate(err)

	body := map[string]string{"error": string(de.Code)}
	if de.Code != dErrors.CodeInternal && de.Description != "" {
		body["error_description"] = de.Description
	}
	WriteJSON(w, dErrors.ToHTTPStatus(de.Code), body)
}

func translate(err error) dErrors.Error {
	var de dErrors.Error
	if errors.As(err, &de) {
		return de
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}
	return dErrors.New(dErrors.CodeInternal, err.Error())
}
