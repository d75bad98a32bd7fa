package files

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	dErrors "medvault/pkg/domain-errors"
)

// DefaultMaxUploadBytes caps upload size at 50 MiB.
const DefaultMaxUploadBytes = 50 << 20

// allowedExtensions partitions the allow-list by purpose. The union is what
// Validate enforces; the partition documents intent and keeps review easy.
var allowedExtensions = map[string][]string{
	"images":    {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".webp"},
	"documents": {".pdf", ".doc", ".docx", ".txt", ".rtf"},
	"medical":   {".pdf", ".jpg", ".jpeg", ".png", ".doc", ".docx", ".dcm"},
	"archives":  {".zip", ".rar", ".7z"},
}

// expectedMIMEs maps extensions to the MIME type a genuine file of that kind
// sniffs as. Only the major type is compared: office formats sniff as zip
// containers and images vary by encoder, but a ".pdf" that sniffs as image/*
// is spoofed.
var expectedMIMEs = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// sniffLen bounds how much of the stream is read for content-type detection.
const sniffLen = 512

// ValidationResult describes an accepted file.
type ValidationResult struct {
	Extension string
	MIMEType  string
	Size      int64
}

// Validator checks uploads for size, extension, and content-type spoofing.
type Validator struct {
	maxBytes int64
	allowed  map[string]struct{}
}

// NewValidator builds a validator with the given size cap. When override
// extensions are supplied they replace the built-in allow-list entirely.
func NewValidator(maxBytes int64, override ...string) *Validator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	allowed := make(map[string]struct{})
	if len(override) > 0 {
		for _, ext := range override {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			allowed[ext] = struct{}{}
		}
	} else {
		for _, exts := range allowedExtensions {
			for _, ext := range exts {
				allowed[ext] = struct{}{}
			}
		}
	}
	return &Validator{maxBytes: maxBytes, allowed: allowed}
}

// MaxBytes returns the configured size cap.
func (v *Validator) MaxBytes() int64 { return v.maxBytes }

// Validate rejects oversized files, disallowed extensions, and files whose
// sniffed content type contradicts their extension. It reads at most sniffLen
// bytes and seeks the stream back so the full body remains consumable.
func (v *Validator) Validate(filename string, size int64, body io.ReadSeeker) (ValidationResult, error) {
	if size > v.maxBytes {
		return ValidationResult{}, dErrors.New(dErrors.CodePayloadTooLarge,
			fmt.Sprintf("file too large, maximum size is %dMB", v.maxBytes>>20))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := v.allowed[ext]; !ok {
		return ValidationResult{}, dErrors.New(dErrors.CodeUnsupportedMedia,
			fmt.Sprintf("file type %s not allowed", ext))
	}

	prefix := make([]byte, sniffLen)
	n, err := io.ReadFull(body, prefix)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ValidationResult{}, fmt.Errorf("read upload prefix: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return ValidationResult{}, fmt.Errorf("reset upload stream: %w", err)
	}

	detected := http.DetectContentType(prefix[:n])
	if detected == "application/octet-stream" {
		// Sniffing is inconclusive; fall back to the extension's registered
		// type, as the claimed name is all we have.
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			detected = byExt
		}
	}
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		detected = mediaType
	}

	if expected, ok := expectedMIMEs[ext]; ok {
		if majorType(detected) != majorType(expected) {
			return ValidationResult{}, dErrors.New(dErrors.CodeBadRequest,
				"file content doesn't match file extension")
		}
	}

	return ValidationResult{Extension: ext, MIMEType: detected, Size: size}, nil
}

func majorType(mimeType string) string {
	if idx := strings.Index(mimeType, "/"); idx != -1 {
		return mimeType[:idx]
	}
	return mimeType
}
