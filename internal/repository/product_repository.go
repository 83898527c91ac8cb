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

var (
	ErrProductNotFound   = domain.NewNotFound("product not found")
	ErrProductSlugExists = domain.NewConflict("product with this slug already exists")
	ErrProductReference  = domain.NewNotFound("referenced category, brand or image not found")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// Create inserts product and links imageIDs to it in one transaction.
	Create(ctx context.Context, product *domain.Product, imageIDs []uuid.UUID) error

	// Update overwrites product's columns. A nil imageIDs keeps the current
	// image links; a non-nil slice replaces them.
	Update(ctx context.Context, product *domain.Product, imageIDs []uuid.UUID) error

	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListAll(ctx context.Context) ([]*domain.Product, error)
	ListPage(ctx context.Context, limit, offset int) ([]*domain.Product, int, error)

	// Find returns every product satisfying all predicates.
	Find(ctx context.Context, predicates ...Predicate) ([]*domain.Product, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productSelect = `
	SELECT p.id, p.name, p.description, p.price, p.stock, p.colors, p.sizes, p.slug,
	       p.category_id, p.brand_id, p.created_at, p.updated_at,
	       c.name, c.slug, b.name, b.slug
	FROM products p
	JOIN categories c ON c.id = p.category_id
	JOIN brands b ON b.id = p.brand_id
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{
		Category: &domain.Summary{},
		Brand:    &domain.Summary{},
		Images:   []domain.Upload{},
	}

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Stock,
		pq.Array(&product.Colors),
		pq.Array(&product.Sizes),
		&product.Slug,
		&product.CategoryID,
		&product.BrandID,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.Category.Name,
		&product.Category.Slug,
		&product.Brand.Name,
		&product.Brand.Slug,
	)
	if err != nil {
		return nil, err
	}

	product.Category.ID = product.CategoryID
	product.Brand.ID = product.BrandID
	return product, nil
}

// Create inserts a new product and its image links
func (r *productRepository) Create(ctx context.Context, product *domain.Product, imageIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO products (id, name, description, price, stock, colors, sizes, slug,
		                      category_id, brand_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		pq.Array(nonNil(product.Colors)),
		pq.Array(nonNil(product.Sizes)),
		product.Slug,
		product.CategoryID,
		product.BrandID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		return classifyWriteError("create product", err)
	}

	if err := linkImages(ctx, tx, product.ID, imageIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}

	return nil
}

// Update overwrites an existing product and optionally its image links
func (r *productRepository) Update(ctx context.Context, product *domain.Product, imageIDs []uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4, stock = $5, colors = $6, sizes = $7,
		    slug = $8, category_id = $9, brand_id = $10, updated_at = $11
		WHERE id = $1
	`

	result, err := tx.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Description,
		product.Price,
		product.Stock,
		pq.Array(nonNil(product.Colors)),
		pq.Array(nonNil(product.Sizes)),
		product.Slug,
		product.CategoryID,
		product.BrandID,
		product.UpdatedAt,
	)
	if err != nil {
		return classifyWriteError("update product", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	if imageIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM product_images WHERE product_id = $1`, product.ID); err != nil {
			return fmt.Errorf("failed to unlink product images: %w", err)
		}
		if err := linkImages(ctx, tx, product.ID, imageIDs); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}

	return nil
}

// Delete removes a product; its image links go with it, the uploads stay
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product with its category, brand and images
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return r.findOne(ctx, productSelect+`WHERE p.id = $1`, id)
}

// FindBySlug retrieves a product by its unique slug
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.findOne(ctx, productSelect+`WHERE p.slug = $1`, slug)
}

func (r *productRepository) findOne(ctx context.Context, query string, arg interface{}) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if err := r.loadImages(ctx, []*domain.Product{product}); err != nil {
		return nil, err
	}

	return product, nil
}

// ListAll retrieves every product, newest first
func (r *productRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return r.query(ctx, productSelect+`ORDER BY p.created_at DESC, p.id`)
}

// ListPage retrieves one page of products and the total product count
func (r *productRepository) ListPage(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	products, err := r.query(ctx, productSelect+`ORDER BY p.created_at DESC, p.id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// Find retrieves products matching every predicate
func (r *productRepository) Find(ctx context.Context, predicates ...Predicate) ([]*domain.Product, error) {
	where, args, err := whereClause("p", predicates)
	if err != nil {
		return nil, err
	}

	return r.query(ctx, productSelect+where+` ORDER BY p.created_at DESC, p.id`, args...)
}

func (r *productRepository) query(ctx context.Context, query string, args ...interface{}) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	if err := r.loadImages(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// loadImages attaches the linked uploads to each product with one query
func (r *productRepository) loadImages(ctx context.Context, products []*domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Product, len(products))
	ids := make([]uuid.UUID, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	query := `
		SELECT pi.product_id, u.id, u.file_url, u.created_at
		FROM product_images pi
		JOIN uploads u ON u.id = pi.upload_id
		WHERE pi.product_id = ANY($1::uuid[])
		ORDER BY u.created_at, u.id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(uuidStrings(ids)))
	if err != nil {
		return fmt.Errorf("failed to load product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID uuid.UUID
			upload    domain.Upload
		)
		if err := rows.Scan(&productID, &upload.ID, &upload.FileURL, &upload.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan product image: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Images = append(p.Images, upload)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating product images: %w", err)
	}

	return nil
}

func linkImages(ctx context.Context, tx *sql.Tx, productID uuid.UUID, imageIDs []uuid.UUID) error {
	if len(imageIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO product_images (product_id, upload_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`

	if _, err := tx.ExecContext(ctx, query, productID, pq.Array(uuidStrings(imageIDs))); err != nil {
		return classifyWriteError("link product images", err)
	}

	return nil
}

// classifyWriteError maps constraint violations to domain errors. Two
// concurrent creates with the same slug both pass the service pre-check;
// the loser lands here as a unique violation.
func classifyWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return ErrProductSlugExists
	case isForeignKeyViolation(err):
		return ErrProductReference
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
