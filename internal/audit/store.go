package audit

import "context"

// RetentionTable is the subject-table name under which audit rows may be
// explicitly scheduled for disposal. The ledger itself never deletes; rows
// only leave through a scheduled retention obligation.
const RetentionTable = "hipaa_audit_logs"

// Store is the durable append-only backing for the ledger.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// Sink receives a copy of every event for fan-out (e.g. a Kafka topic feeding
// a SIEM). Sink failures are reported but never block the ledger.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}
