package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists audit events in the hipaa_audit_logs table.
// Append-only: there is deliberately no update or delete path here.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	var details []byte
	if event.Details != nil {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO hipaa_audit_logs
			(id, timestamp, event_type, actor_id, actor_email, source_ip, user_agent,
			 resource_type, resource_id, action, outcome, phi_involved, details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(),
		event.Timestamp,
		string(event.EventType),
		nullable(event.ActorID),
		nullable(event.ActorEmail),
		nullable(event.SourceIP),
		nullable(event.UserAgent),
		nullable(event.ResourceType),
		nullable(event.ResourceID),
		event.Action,
		string(event.Outcome),
		event.PHIInvolved,
		details,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT timestamp, event_type, actor_id, actor_email, source_ip, user_agent,
		       resource_type, resource_id, action, outcome, phi_involved, details
		FROM hipaa_audit_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			timestamp time.Time
			actorID, actorEmail, sourceIP, userAgent sql.NullString
			resourceType, resourceID                 sql.NullString
			details                                  []byte
		)
		if err := rows.Scan(&timestamp, &event.EventType, &actorID, &actorEmail,
			&sourceIP, &userAgent, &resourceType, &resourceID,
			&event.Action, &event.Outcome, &event.PHIInvolved, &details); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Timestamp = timestamp.UTC()
		event.ActorID = actorID.String
		event.ActorEmail = actorEmail.String
		event.SourceIP = sourceIP.String
		event.UserAgent = userAgent.String
		event.ResourceType = resourceType.String
		event.ResourceID = resourceID.String
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
