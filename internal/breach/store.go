package breach

import "context"

// Store persists breach incidents.
type Store interface {
	Insert(ctx context.Context, incident Incident) error
	List(ctx context.Context, limit int) ([]Incident, error)
}
