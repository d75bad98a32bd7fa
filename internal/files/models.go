package files

import "time"

// Category buckets an uploaded file by purpose. Medical and service records
// are the PHI-sensitive set: their bytes are always encrypted at rest.
type Category string

const (
	CategoryMedicalRecord Category = "medical_record"
	CategoryServiceRecord Category = "service_record"
	CategoryPhoto         Category = "photo"
	CategoryDocument      Category = "document"
	CategoryOther         Category = "other"
)

// ParseCategory validates a client-supplied category value.
func ParseCategory(value string) (Category, bool) {
	switch Category(value) {
	case CategoryMedicalRecord, CategoryServiceRecord, CategoryPhoto, CategoryDocument, CategoryOther:
		return Category(value), true
	}
	return "", false
}

// IsPHI reports whether files in this category carry protected health
// information.
func (c Category) IsPHI() bool {
	return c == CategoryMedicalRecord || c == CategoryServiceRecord
}

// Status of an uploaded file's lifecycle.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusDeleted  Status = "deleted"
)

// Metadata holds best-effort extracted properties. Extraction failures are
// logged and ignored; metadata is never required.
type Metadata struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// UploadedFile is the metadata row for one stored artifact.
type UploadedFile struct {
	ID               string
	OriginalFilename string
	StoredPath       string // category/<random-id>.<ext>
	SizeBytes        int64
	MIMEType         string
	Category         Category
	IsPHI            bool
	ContactID        string
	UploadSource     string
	SourceIP         string
	UserAgent        string
	Status           Status
	Metadata         Metadata
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// UploadResponse is the wire shape returned to the uploader.
type UploadResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	FileSize         int64     `json:"file_size"`
	MIMEType         string    `json:"mime_type"`
	FileCategory     Category  `json:"file_category"`
	UploadStatus     Status    `json:"upload_status"`
	IsPHI            bool      `json:"is_phi"`
	CreatedAt        time.Time `json:"created_at"`
}

// Response converts the metadata row to its wire shape.
func (f UploadedFile) Response() UploadResponse {
	return UploadResponse{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		FileSize:         f.SizeBytes,
		MIMEType:         f.MIMEType,
		FileCategory:     f.Category,
		UploadStatus:     f.Status,
		IsPHI:            f.IsPHI,
		CreatedAt:        f.CreatedAt,
	}
}

// Filter narrows List results.
type Filter struct {
	ContactID string
	Category  Category
	Limit     int
}
