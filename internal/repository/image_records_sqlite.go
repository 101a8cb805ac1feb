package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/formbricks/gallery/internal/models"
	vec "github.com/formbricks/gallery/pkg/embeddings"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS image_records (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	filename    TEXT NOT NULL,
	path        TEXT NOT NULL,
	description TEXT NOT NULL,
	uploaded_at TEXT NOT NULL,
	embedding   BLOB
)`

// ImageRecordsSQLiteRepository stores image records in a SQLite table with the embedding as a BLOB.
type ImageRecordsSQLiteRepository struct {
	db *sql.DB
}

// NewImageRecordsSQLiteRepository creates a repository on an open database.
func NewImageRecordsSQLiteRepository(db *sql.DB) *ImageRecordsSQLiteRepository {
	return &ImageRecordsSQLiteRepository{db: db}
}

// EnsureSchema creates the image_records table when missing.
func (r *ImageRecordsSQLiteRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create image_records table: %w", err)
	}

	return nil
}

// Append inserts a record; insertion order is kept by the seq column.
func (r *ImageRecordsSQLiteRepository) Append(ctx context.Context, record models.ImageRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO image_records (id, filename, path, description, uploaded_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.Filename, record.Path, record.Description,
		record.UploadedAt.UTC().Format(time.RFC3339Nano), vec.EncodeBlob(record.Embedding),
	)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return fmt.Errorf("insert image record %s: %w", record.ID, ErrDuplicateID)
		}

		return fmt.Errorf("insert image record: %w", err)
	}

	return nil
}

// LoadAll returns every record in insertion order. Rows with an undecodable embedding are
// returned without one so they stay listable.
func (r *ImageRecordsSQLiteRepository) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, filename, path, description, uploaded_at, embedding
		FROM image_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list image records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []models.ImageRecord{}

	for rows.Next() {
		record, err := scanSQLiteRecord(ctx, rows)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating image records: %w", err)
	}

	return records, nil
}

// Get returns the record with the given id.
func (r *ImageRecordsSQLiteRepository) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, filename, path, description, uploaded_at, embedding
		FROM image_records WHERE id = ?`, id)

	record, err := scanSQLiteRecord(ctx, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}

		return nil, err
	}

	return &record, nil
}

// UpdateDescription overwrites the description of the record with the given id.
func (r *ImageRecordsSQLiteRepository) UpdateDescription(ctx context.Context, id, description string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE image_records SET description = ? WHERE id = ?`, description, id)
	if err != nil {
		return fmt.Errorf("update image description: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update image description: %w", err)
	}

	if n == 0 {
		return ErrRecordNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(ctx context.Context, row rowScanner) (models.ImageRecord, error) {
	var (
		record     models.ImageRecord
		uploadedAt string
		blob       []byte
	)

	if err := row.Scan(&record.ID, &record.Filename, &record.Path, &record.Description, &uploadedAt, &blob); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return record, err
		}

		return record, fmt.Errorf("scan image record: %w", err)
	}

	if t, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
		record.UploadedAt = t
	} else {
		slog.WarnContext(ctx, "image record has malformed uploaded_at", "id", record.ID, "value", uploadedAt)
	}

	embedding, err := vec.DecodeBlob(blob)
	if err != nil {
		slog.WarnContext(ctx, "image record has malformed embedding, dropping it", "id", record.ID, "error", err)
	}

	record.Embedding = embedding

	return record, nil
}
