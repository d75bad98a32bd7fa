package retention

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"medvault/pkg/platform/sentinel"
)

// PostgresStore persists retention obligations in hipaa_data_retention.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schedule inserts unless an active obligation for the subject row exists.
// The WHERE NOT EXISTS guard makes the dedupe atomic without relying on a
// partial unique index being present.
func (s *PostgresStore) Schedule(ctx context.Context, record Record) error {
	query := `
		INSERT INTO hipaa_data_retention
			(id, table_name, record_id, scheduled_deletion_date, status, created_at)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM hipaa_data_retention
			WHERE table_name = $2 AND record_id = $3 AND status = 'scheduled'
		)
	`
	res, err := s.db.ExecContext(ctx, query,
		record.ID, record.TableName, record.RecordID,
		record.ScheduledDeletionDate, string(record.Status), record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert retention record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("retention rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("active obligation for %s/%s: %w",
			record.TableName, record.RecordID, sentinel.ErrConflict)
	}
	return nil
}

func (s *PostgresStore) ListDue(ctx context.Context, now time.Time) ([]Record, error) {
	query := `
		SELECT id, table_name, record_id, scheduled_deletion_date, status, created_at, deleted_at
		FROM hipaa_data_retention
		WHERE status = 'scheduled' AND scheduled_deletion_date <= $1
	`
	rows, err := s.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("list due retention records: %w", err)
	}
	defer rows.Close()

	var due []Record
	for rows.Next() {
		var (
			record    Record
			status    string
			deletedAt sql.NullTime
		)
		if err := rows.Scan(&record.ID, &record.TableName, &record.RecordID,
			&record.ScheduledDeletionDate, &status, &record.CreatedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("scan retention record: %w", err)
		}
		record.Status = Status(status)
		if deletedAt.Valid {
			t := deletedAt.Time
			record.DeletedAt = &t
		}
		due = append(due, record)
	}
	return due, rows.Err()
}

// Claim is the conditional update that makes concurrent sweeps safe: only the
// sweep that flips scheduled -> completed proceeds to delete the subject row.
func (s *PostgresStore) Claim(ctx context.Context, id string, deletedAt time.Time) (bool, error) {
	query := `
		UPDATE hipaa_data_retention
		SET status = 'completed', deleted_at = $2
		WHERE id = $1 AND status = 'scheduled'
	`
	res, err := s.db.ExecContext(ctx, query, id, deletedAt)
	if err != nil {
		return false, fmt.Errorf("claim retention record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim rows affected: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresStore) Release(ctx context.Context, id string) error {
	query := `
		UPDATE hipaa_data_retention
		SET status = 'scheduled', deleted_at = NULL
		WHERE id = $1
	`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("release retention record: %w", err)
	}
	return nil
}
