package breach

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresStore persists incidents in the hipaa_breach_incidents table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, incident Incident) error {
	phiTypes, err := json.Marshal(incident.PHITypesInvolved)
	if err != nil {
		return fmt.Errorf("marshal phi types: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hipaa_breach_incidents (
			id, incident_date, incident_type, description,
			affected_individuals_count, phi_types_involved, cause, severity,
			reported_by, status, reported_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		incident.ID, incident.IncidentDate, incident.IncidentType,
		incident.Description, incident.AffectedCount, phiTypes, incident.Cause,
		incident.Severity, incident.ReportedBy, string(incident.Status),
		incident.ReportedAt,
	)
	if err != nil {
		return fmt.Errorf("insert breach incident: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, incident_date, incident_type, description,
			affected_individuals_count, phi_types_involved, cause, severity,
			reported_by, status, reported_at
		FROM hipaa_breach_incidents
		ORDER BY reported_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list breach incidents: %w", err)
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		var (
			incident Incident
			status   string
			phiTypes []byte
		)
		err := rows.Scan(&incident.ID, &incident.IncidentDate,
			&incident.IncidentType, &incident.Description,
			&incident.AffectedCount, &phiTypes, &incident.Cause,
			&incident.Severity, &incident.ReportedBy, &status,
			&incident.ReportedAt)
		if err != nil {
			return nil, fmt.Errorf("scan breach incident: %w", err)
		}
		incident.Status = IncidentStatus(status)
		if len(phiTypes) > 0 {
			if err := json.Unmarshal(phiTypes, &incident.PHITypesInvolved); err != nil {
				return nil, fmt.Errorf("unmarshal phi types: %w", err)
			}
		}
		out = append(out, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list breach incidents: %w", err)
	}
	return out, nil
}
