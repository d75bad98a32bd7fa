package retention

import "time"

// Status of a retention obligation.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

// Record is one scheduled future-deletion obligation for a subject row.
// At most one active (scheduled) record exists per (TableName, RecordID);
// the stores enforce this on insert.
type Record struct {
	ID                    string
	TableName             string
	RecordID              string
	ScheduledDeletionDate time.Time
	Status                Status
	CreatedAt             time.Time
	DeletedAt             *time.Time
}

// Result summarizes one sweep.
type Result struct {
	Deleted int
	Failed  int
}
