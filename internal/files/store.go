package files

import (
	"context"
	"time"
)

// MetadataStore persists UploadedFile rows.
type MetadataStore interface {
	Insert(ctx context.Context, file UploadedFile) error

	// Get returns the row unless it is absent or soft-deleted, in which case
	// it returns sentinel.ErrNotFound (wrapped).
	Get(ctx context.Context, id string) (UploadedFile, error)

	// MarkDeleted flips uploaded -> deleted. The conditional update doubles
	// as the guard against a concurrent delete/download race: only one caller
	// observes true and proceeds to wipe the bytes.
	MarkDeleted(ctx context.Context, id string, when time.Time) (bool, error)

	List(ctx context.Context, filter Filter) ([]UploadedFile, error)

	// Delete removes the row entirely. Used by the retention sweep, not by
	// the request path.
	Delete(ctx context.Context, id string) error
}

// AccessLogger records the lightweight view/download access trail, a separate
// side channel from the audit ledger.
type AccessLogger interface {
	LogAccess(ctx context.Context, fileID, accessType, sourceIP, userAgent string) error
}
