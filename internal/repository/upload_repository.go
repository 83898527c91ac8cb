package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrUploadNotFound = domain.NewNotFound("image not found")

// UploadRepository defines the interface for upload data access
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Upload, error)

	// FindByIDs returns the uploads among ids that exist. Missing ids are
	// silently skipped; callers compare lengths.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Upload, error)
}

type uploadRepository struct {
	db *sql.DB
}

// NewUploadRepository creates a new instance of UploadRepository
func NewUploadRepository(db *sql.DB) UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	query := `INSERT INTO uploads (id, file_url, created_at) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, upload.ID, upload.FileURL, upload.CreatedAt); err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}

	return nil
}

func (r *uploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	upload := &domain.Upload{}
	err := r.db.QueryRowContext(ctx, `SELECT id, file_url, created_at FROM uploads WHERE id = $1`, id).
		Scan(&upload.ID, &upload.FileURL, &upload.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUploadNotFound
		}
		return nil, fmt.Errorf("failed to find upload by ID: %w", err)
	}

	return upload, nil
}

func (r *uploadRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Upload, error) {
	uploads := []domain.Upload{}
	if len(ids) == 0 {
		return uploads, nil
	}

	query := `
		SELECT id, file_url, created_at
		FROM uploads
		WHERE id = ANY($1::uuid[])
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to find uploads: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var upload domain.Upload
		if err := rows.Scan(&upload.ID, &upload.FileURL, &upload.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, upload)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating uploads: %w", err)
	}

	return uploads, nil
}
