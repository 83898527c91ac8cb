package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCategoryNotFound      = domain.NewNotFound("category not found")
	ErrCategoryAlreadyExists = domain.NewConflict("category with this slug already exists")
	ErrParentCategoryMissing = domain.NewNotFound("parent category not found")
)

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)

	// Children returns the direct children of parentID.
	Children(ctx context.Context, parentID uuid.UUID) ([]*domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category
func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, name, slug, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.ParentID,
		category.CreatedAt,
	)

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrCategoryAlreadyExists
		case isForeignKeyViolation(err):
			return ErrParentCategoryMissing
		}
		return fmt.Errorf("failed to create category: %w", err)
	}

	return nil
}

// List retrieves all categories
func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	return r.query(ctx, `
		SELECT id, name, slug, parent_id, created_at
		FROM categories
		ORDER BY name ASC
	`)
}

// Children retrieves the direct subcategories of a category
func (r *categoryRepository) Children(ctx context.Context, parentID uuid.UUID) ([]*domain.Category, error) {
	return r.query(ctx, `
		SELECT id, name, slug, parent_id, created_at
		FROM categories
		WHERE parent_id = $1
		ORDER BY name ASC
	`, parentID)
}

// FindByID retrieves a category by ID
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `
		SELECT id, name, slug, parent_id, created_at
		FROM categories
		WHERE id = $1
	`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

func (r *categoryRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func scanCategory(row rowScanner) (*domain.Category, error) {
	var (
		category domain.Category
		parentID uuid.NullUUID
	)

	if err := row.Scan(&category.ID, &category.Name, &category.Slug, &parentID, &category.CreatedAt); err != nil {
		return nil, err
	}

	if parentID.Valid {
		category.ParentID = &parentID.UUID
	}

	return &category, nil
}
