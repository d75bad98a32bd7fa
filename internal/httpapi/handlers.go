// Package httpapi exposes the compliance core over HTTP: file ingestion,
// contact intake, and the admin-only compliance endpoints.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"medvault/internal/audit"
	"medvault/internal/breach"
	"medvault/internal/contact"
	"medvault/internal/files"
	"medvault/internal/retention"
	dErrors "medvault/pkg/domain-errors"
	"medvault/pkg/platform/httputil"
)

// multipartMemoryLimit bounds how much of a multipart body is buffered in
// memory before spilling to a temp file.
const multipartMemoryLimit = 8 << 20

// Handlers bundles the endpoint implementations.
type Handlers struct {
	files     *files.Service
	contact   *contact.Service
	breach    *breach.Service
	retention *retention.Service
	ledger    *audit.Ledger
	logger    *slog.Logger
	maxUpload int64
}

func NewHandlers(
	filesSvc *files.Service,
	contactSvc *contact.Service,
	breachSvc *breach.Service,
	retentionSvc *retention.Service,
	ledger *audit.Ledger,
	logger *slog.Logger,
	maxUpload int64,
) *Handlers {
	if maxUpload <= 0 {
		maxUpload = files.DefaultMaxUploadBytes
	}
	return &Handlers{
		files:     filesSvc,
		contact:   contactSvc,
		breach:    breachSvc,
		retention: retentionSvc,
		ledger:    ledger,
		logger:    logger,
		maxUpload: maxUpload,
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	// One extra byte so a body at exactly the cap still parses and the
	// validator produces the proper payload_too_large response.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodePayloadTooLarge,
				fmt.Sprintf("file too large, maximum size is %dMB", h.maxUpload>>20)))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "file field is required"))
		return
	}
	defer file.Close()

	uploaded, err := h.files.Upload(r.Context(), files.UploadRequest{
		Filename:     header.Filename,
		Size:         header.Size,
		Body:         file,
		Category:     r.FormValue("category"),
		ContactID:    r.FormValue("contact_id"),
		UploadSource: r.FormValue("upload_source"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, uploaded.Response())
}

func (h *Handlers) handleGetFile(w http.ResponseWriter, r *http.Request) {
	file, err := h.files.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, file.Response())
}

func (h *Handlers) handleDownloadFile(w http.ResponseWriter, r *http.Request) {
	file, body, err := h.files.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.OriginalFilename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.ErrorContext(r.Context(), "writing download body failed",
			"file_id", file.ID, "error", err)
	}
}

func (h *Handlers) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.files.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) handleListFiles(w http.ResponseWriter, r *http.Request) {
	filter := files.Filter{
		ContactID: r.URL.Query().Get("contact_id"),
		Limit:     queryInt(r, "limit"),
	}
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, ok := files.ParseCategory(raw)
		if !ok {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "unknown file category"))
			return
		}
		filter.Category = category
	}

	listed, err := h.files.List(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]files.UploadResponse, 0, len(listed))
	for _, file := range listed {
		out = append(out, file.Response())
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"files": out})
}

func (h *Handlers) handleSubmitContact(w http.ResponseWriter, r *http.Request) {
	var req contact.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	sub, err := h.contact.Submit(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handlers) handleGetContact(w http.ResponseWriter, r *http.Request) {
	sub, err := h.contact.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handlers) handleListContacts(w http.ResponseWriter, r *http.Request) {
	listed, err := h.contact.List(r.Context(), queryInt(r, "limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"submissions": listed})
}

func (h *Handlers) handleExecuteRetention(w http.ResponseWriter, r *http.Request) {
	result, err := h.retention.ExecuteDue(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{
		"deleted": result.Deleted,
		"failed":  result.Failed,
	})
}

func (h *Handlers) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	events, err := h.ledger.ListRecent(r.Context(), queryInt(r, "limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handlers) handleReportBreach(w http.ResponseWriter, r *http.Request) {
	var report breach.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	incident, err := h.breach.Report(r.Context(), report)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, incident)
}

func (h *Handlers) handleListBreaches(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.breach.List(r.Context(), queryInt(r, "limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"incidents": incidents})
}

func queryInt(r *http.Request, key string) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	return 0
}
