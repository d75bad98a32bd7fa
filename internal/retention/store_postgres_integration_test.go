//go:build integration

package retention_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"medvault/internal/platform/database"
	"medvault/internal/retention"
	"medvault/pkg/platform/sentinel"
	"medvault/pkg/testutil/containers"
)

func TestPostgresStoreScheduleAndClaim(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, pg.DB))

	store := retention.NewPostgresStore(pg.DB)
	now := time.Now().UTC()

	record := retention.Record{
		ID:                    uuid.NewString(),
		TableName:             "file_uploads",
		RecordID:              "file-1",
		ScheduledDeletionDate: now.Add(-time.Hour),
		Status:                retention.StatusScheduled,
		CreatedAt:             now,
	}
	require.NoError(t, store.Schedule(ctx, record))

	// Second active obligation for the same subject row is rejected.
	dup := record
	dup.ID = uuid.NewString()
	require.ErrorIs(t, store.Schedule(ctx, dup), sentinel.ErrConflict)

	due, err := store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, record.ID, due[0].ID)

	claimed, err := store.Claim(ctx, record.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	// A concurrent sweep loses the claim race.
	claimed, err = store.Claim(ctx, record.ID, now)
	require.NoError(t, err)
	require.False(t, claimed)

	// Completed obligations are no longer due, and the subject row is free
	// for a new obligation.
	due, err = store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Empty(t, due)
	require.NoError(t, store.Schedule(ctx, retention.Record{
		ID:                    uuid.NewString(),
		TableName:             "file_uploads",
		RecordID:              "file-1",
		ScheduledDeletionDate: now.AddDate(6, 0, 0),
		Status:                retention.StatusScheduled,
		CreatedAt:             now,
	}))
}

func TestSQLSubjectDeleterRemovesScheduledAuditRow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, pg.DB))

	rowID := uuid.NewString()
	_, err := pg.DB.ExecContext(ctx, `
		INSERT INTO hipaa_audit_logs (id, timestamp, event_type, action, outcome, phi_involved)
		VALUES ($1, $2, 'phi_access', 'Accessed file', 'SUCCESS', TRUE)`,
		rowID, time.Now().UTC())
	require.NoError(t, err)

	deleter := retention.NewSQLSubjectDeleter(pg.DB, "hipaa_audit_logs")
	require.NoError(t, deleter.DeleteSubject(ctx, "hipaa_audit_logs", rowID))

	var count int
	err = pg.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM hipaa_audit_logs WHERE id = $1`, rowID).Scan(&count)
	require.NoError(t, err)
	require.Zero(t, count)

	// Tables outside the allow-list stay untouchable.
	require.ErrorIs(t,
		deleter.DeleteSubject(ctx, "file_uploads", rowID), sentinel.ErrInvalidState)
}

func TestPostgresStoreRelease(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	require.NoError(t, database.EnsureSchema(ctx, pg.DB))

	store := retention.NewPostgresStore(pg.DB)
	now := time.Now().UTC()

	record := retention.Record{
		ID:                    uuid.NewString(),
		TableName:             "contacts",
		RecordID:              "sub-1",
		ScheduledDeletionDate: now.Add(-time.Hour),
		Status:                retention.StatusScheduled,
		CreatedAt:             now,
	}
	require.NoError(t, store.Schedule(ctx, record))

	claimed, err := store.Claim(ctx, record.ID, now)
	require.NoError(t, err)
	require.True(t, claimed)

	require.NoError(t, store.Release(ctx, record.ID))

	due, err := store.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)
}
