package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the full table set. Idempotent so EnsureSchema can run on every
// start; production deployments that manage DDL out of band simply see no-ops.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS hipaa_audit_logs (
		id UUID PRIMARY KEY,
		timestamp TIMESTAMPTZ NOT NULL,
		event_type TEXT NOT NULL,
		actor_id TEXT,
		actor_email TEXT,
		source_ip TEXT,
		user_agent TEXT,
		resource_type TEXT,
		resource_id TEXT,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		phi_involved BOOLEAN NOT NULL DEFAULT FALSE,
		details JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_timestamp ON hipaa_audit_logs (timestamp DESC)`,

	`CREATE TABLE IF NOT EXISTS hipaa_data_retention (
		id UUID PRIMARY KEY,
		table_name TEXT NOT NULL,
		record_id TEXT NOT NULL,
		scheduled_deletion_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_retention_due ON hipaa_data_retention (status, scheduled_deletion_date)`,

	`CREATE TABLE IF NOT EXISTS hipaa_breach_incidents (
		id UUID PRIMARY KEY,
		incident_date TIMESTAMPTZ NOT NULL,
		incident_type TEXT,
		description TEXT NOT NULL,
		affected_individuals_count INTEGER NOT NULL DEFAULT 0,
		phi_types_involved JSONB,
		cause TEXT,
		severity TEXT,
		reported_by TEXT,
		status TEXT NOT NULL,
		reported_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS file_uploads (
		id UUID PRIMARY KEY,
		original_filename TEXT NOT NULL,
		stored_path TEXT NOT NULL,
		size_bytes BIGINT NOT NULL,
		mime_type TEXT NOT NULL,
		file_category TEXT NOT NULL,
		is_phi BOOLEAN NOT NULL DEFAULT FALSE,
		contact_id TEXT,
		upload_source TEXT,
		source_ip TEXT,
		user_agent TEXT,
		upload_status TEXT NOT NULL,
		metadata JSONB,
		created_at TIMESTAMPTZ NOT NULL,
		deleted_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_file_uploads_contact ON file_uploads (contact_id)`,

	`CREATE TABLE IF NOT EXISTS file_access_logs (
		id UUID PRIMARY KEY,
		file_id UUID NOT NULL,
		access_type TEXT NOT NULL,
		source_ip TEXT,
		user_agent TEXT,
		accessed_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT,
		subject TEXT,
		message TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'new',
		source_ip TEXT,
		user_agent TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates any missing tables and indexes.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
