package contact

import "context"

// Store persists contact submissions. Implementations receive rows whose PHI
// fields are already encrypted and must treat them as opaque strings.
type Store interface {
	Insert(ctx context.Context, sub Submission) error
	Get(ctx context.Context, id string) (Submission, error)
	List(ctx context.Context, limit int) ([]Submission, error)
	Delete(ctx context.Context, id string) error
}
