package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medvault/pkg/platform/sentinel"
)

// PostgresStore persists file metadata in the file_uploads table and the
// access trail in file_access_logs.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, file UploadedFile) error {
	meta, err := json.Marshal(file.Metadata)
	if err != nil {
		return fmt.Errorf("marshal file metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO file_uploads (
			id, original_filename, stored_path, size_bytes, mime_type,
			file_category, is_phi, contact_id, upload_source, source_ip,
			user_agent, upload_status, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		file.ID, file.OriginalFilename, file.StoredPath, file.SizeBytes, file.MIMEType,
		string(file.Category), file.IsPHI, nullable(file.ContactID), nullable(file.UploadSource),
		nullable(file.SourceIP), nullable(file.UserAgent), string(file.Status), meta, file.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert file metadata: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (UploadedFile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, original_filename, stored_path, size_bytes, mime_type,
		       file_category, is_phi, contact_id, upload_source, source_ip,
		       user_agent, upload_status, metadata, created_at, deleted_at
		FROM file_uploads
		WHERE id = $1 AND upload_status <> 'deleted'`, id)

	file, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return UploadedFile{}, fmt.Errorf("file %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return UploadedFile{}, fmt.Errorf("query file metadata: %w", err)
	}
	return file, nil
}

func (s *PostgresStore) MarkDeleted(ctx context.Context, id string, when time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE file_uploads
		SET upload_status = 'deleted', deleted_at = $2
		WHERE id = $1 AND upload_status = 'uploaded'`, id, when)
	if err != nil {
		return false, fmt.Errorf("mark file deleted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark file deleted: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]UploadedFile, error) {
	query := `
		SELECT id, original_filename, stored_path, size_bytes, mime_type,
		       file_category, is_phi, contact_id, upload_source, source_ip,
		       user_agent, upload_status, metadata, created_at, deleted_at
		FROM file_uploads
		WHERE upload_status <> 'deleted'`
	args := []any{}
	if filter.ContactID != "" {
		args = append(args, filter.ContactID)
		query += fmt.Sprintf(" AND contact_id = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		query += fmt.Sprintf(" AND file_category = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list file metadata: %w", err)
	}
	defer rows.Close()

	var out []UploadedFile
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		out = append(out, file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list file metadata: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM file_uploads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete file metadata: %w", err)
	}
	return nil
}

func (s *PostgresStore) LogAccess(ctx context.Context, fileID, accessType, sourceIP, userAgent string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO file_access_logs (id, file_id, access_type, source_ip, user_agent, accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), fileID, accessType, nullable(sourceIP), nullable(userAgent), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert file access log: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (UploadedFile, error) {
	var (
		file      UploadedFile
		category  string
		status    string
		contactID sql.NullString
		source    sql.NullString
		sourceIP  sql.NullString
		userAgent sql.NullString
		meta      []byte
		deletedAt sql.NullTime
	)
	err := row.Scan(
		&file.ID, &file.OriginalFilename, &file.StoredPath, &file.SizeBytes, &file.MIMEType,
		&category, &file.IsPHI, &contactID, &source, &sourceIP,
		&userAgent, &status, &meta, &file.CreatedAt, &deletedAt,
	)
	if err != nil {
		return UploadedFile{}, err
	}

	file.Category = Category(category)
	file.Status = Status(status)
	file.ContactID = contactID.String
	file.UploadSource = source.String
	file.SourceIP = sourceIP.String
	file.UserAgent = userAgent.String
	if deletedAt.Valid {
		t := deletedAt.Time
		file.DeletedAt = &t
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &file.Metadata); err != nil {
			return UploadedFile{}, fmt.Errorf("unmarshal file metadata: %w", err)
		}
	}
	return file, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
