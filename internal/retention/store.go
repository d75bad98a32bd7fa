package retention

import (
	"context"
	"time"
)

// Store persists retention obligations.
type Store interface {
	// Schedule inserts a new obligation. Returns sentinel.ErrConflict
	// (wrapped) when an active obligation already exists for the same
	// subject row.
	Schedule(ctx context.Context, record Record) error

	// ListDue returns all scheduled records whose deletion date has passed.
	ListDue(ctx context.Context, now time.Time) ([]Record, error)

	// Claim transitions a record scheduled -> completed. Returns false when
	// the record was already claimed; two concurrent sweeps can race here and
	// exactly one wins.
	Claim(ctx context.Context, id string, deletedAt time.Time) (bool, error)

	// Release reverts a claimed record to scheduled after a failed subject
	// deletion so the obligation is retried on the next sweep.
	Release(ctx context.Context, id string) error
}

// SubjectDeleter removes the subject row an obligation points at. The
// retention core never touches subject tables directly; deletion authority is
// injected per table.
type SubjectDeleter interface {
	DeleteSubject(ctx context.Context, table, recordID string) error
}
