package contact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medvault/pkg/platform/sentinel"
)

// PostgresStore persists submissions in the contacts table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, sub Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (
			id, name, email, phone, subject, message, status, source_ip, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		sub.ID, sub.Name, sub.Email, sub.Phone, sub.Subject, sub.Message,
		string(sub.Status), nullable(sub.SourceIP), nullable(sub.UserAgent), sub.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, subject, message, status, source_ip, user_agent, created_at
		FROM contacts
		WHERE id = $1`, id)

	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("submission %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Submission{}, fmt.Errorf("query contact submission: %w", err)
	}
	return sub, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, phone, subject, message, status, source_ip, user_agent, created_at
		FROM contacts
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan contact submission: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list contact submissions: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete contact submission: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var (
		sub       Submission
		status    string
		sourceIP  sql.NullString
		userAgent sql.NullString
	)
	err := row.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Phone, &sub.Subject,
		&sub.Message, &status, &sourceIP, &userAgent, &sub.CreatedAt)
	if err != nil {
		return Submission{}, err
	}
	sub.Status = Status(status)
	sub.SourceIP = sourceIP.String
	sub.UserAgent = userAgent.String
	return sub, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
