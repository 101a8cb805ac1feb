package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/formbricks/gallery/internal/models"
)

// The embedding column has no fixed dimension so a model switch does not need a migration.
// Search scans every row in Go; no ANN index is built.
var postgresSchema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS image_records (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	filename    TEXT NOT NULL,
	path        TEXT NOT NULL,
	description TEXT NOT NULL,
	uploaded_at TIMESTAMPTZ NOT NULL,
	embedding   vector
)`,
}

// ImageRecordsPostgresRepository stores image records in PostgreSQL with a pgvector column.
// The pool must register pgvector types (pgxvec.RegisterTypes) on connect.
type ImageRecordsPostgresRepository struct {
	db *pgxpool.Pool
}

// NewImageRecordsPostgresRepository creates a repository on the given pool.
func NewImageRecordsPostgresRepository(db *pgxpool.Pool) *ImageRecordsPostgresRepository {
	return &ImageRecordsPostgresRepository{db: db}
}

// MigratePostgres creates the vector extension and the image_records table when missing.
// It uses its own connection because pgvector type registration on pool connections
// requires the extension to exist already.
func MigratePostgres(ctx context.Context, databaseURL string) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connect for migration: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	for _, stmt := range postgresSchema {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create image_records schema: %w", err)
		}
	}

	return nil
}

// Append inserts a record; a nil embedding is stored as NULL.
func (r *ImageRecordsPostgresRepository) Append(ctx context.Context, record models.ImageRecord) error {
	var embedding *pgvector.Vector
	if record.HasEmbedding() {
		v := pgvector.NewVector(record.Embedding)
		embedding = &v
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO image_records (id, filename, path, description, uploaded_at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.Filename, record.Path, record.Description, record.UploadedAt, embedding,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("insert image record %s: %w", record.ID, ErrDuplicateID)
		}

		return fmt.Errorf("insert image record: %w", err)
	}

	return nil
}

// LoadAll returns every record in insertion order.
func (r *ImageRecordsPostgresRepository) LoadAll(ctx context.Context) ([]models.ImageRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, filename, path, description, uploaded_at, embedding
		FROM image_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list image records: %w", err)
	}
	defer rows.Close()

	records := []models.ImageRecord{}

	for rows.Next() {
		record, err := scanPostgresRecord(rows)
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
func (r *ImageRecordsPostgresRepository) Get(ctx context.Context, id string) (*models.ImageRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, filename, path, description, uploaded_at, embedding
		FROM image_records WHERE id = $1`, id)

	record, err := scanPostgresRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRecordNotFound
		}

		return nil, err
	}

	return &record, nil
}

// UpdateDescription overwrites the description of the record with the given id.
func (r *ImageRecordsPostgresRepository) UpdateDescription(ctx context.Context, id, description string) error {
	tag, err := r.db.Exec(ctx, `UPDATE image_records SET description = $1 WHERE id = $2`, description, id)
	if err != nil {
		return fmt.Errorf("update image description: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func scanPostgresRecord(row pgx.Row) (models.ImageRecord, error) {
	var (
		record    models.ImageRecord
		embedding *pgvector.Vector
	)

	if err := row.Scan(&record.ID, &record.Filename, &record.Path, &record.Description,
		&record.UploadedAt, &embedding); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return record, err
		}

		return record, fmt.Errorf("scan image record: %w", err)
	}

	if embedding != nil {
		record.Embedding = embedding.Slice()
	}

	return record, nil
}
