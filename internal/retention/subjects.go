package retention

import (
	"context"
	"database/sql"
	"fmt"

	"medvault/pkg/platform/sentinel"
)

// FuncSubjectDeleter routes deletions to per-table functions. Process wiring
// registers each domain service's deleter here; tests register fakes.
type FuncSubjectDeleter map[string]func(ctx context.Context, recordID string) error

func (d FuncSubjectDeleter) DeleteSubject(ctx context.Context, table, recordID string) error {
	fn, ok := d[table]
	if !ok {
		return fmt.Errorf("no deleter for table %q: %w", table, sentinel.ErrNotFound)
	}
	return fn(ctx, recordID)
}

// SQLSubjectDeleter deletes subject rows directly. Table names are checked
// against a fixed allow-list; they are interpolated into the statement and
// must never come from user input.
type SQLSubjectDeleter struct {
	db      *sql.DB
	allowed map[string]struct{}
}

func NewSQLSubjectDeleter(db *sql.DB, tables ...string) *SQLSubjectDeleter {
	allowed := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		allowed[t] = struct{}{}
	}
	return &SQLSubjectDeleter{db: db, allowed: allowed}
}

func (d *SQLSubjectDeleter) DeleteSubject(ctx context.Context, table, recordID string) error {
	if _, ok := d.allowed[table]; !ok {
		return fmt.Errorf("table %q not in retention allow-list: %w", table, sentinel.ErrInvalidState)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	if _, err := d.db.ExecContext(ctx, query, recordID); err != nil {
		return fmt.Errorf("delete subject row %s/%s: %w", table, recordID, err)
	}
	return nil
}
