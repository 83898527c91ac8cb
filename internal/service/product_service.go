package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"
	"storefront/internal/slug"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPage         = 1
	DefaultPageLimit    = 10
	DefaultMaxPageLimit = 100

	MessageProductUpdated = "Product updated successfully"
	MessageProductDeleted = "Product deleted successfully"
)

var (
	ErrNoProductsMatch      = domain.NewNotFound("products not found with given parameters")
	ErrNoProductsInCategory = domain.NewNotFound("no products found for the given category and its subcategories")
	ErrEmptySlug            = domain.NewInvalid("slug is empty: name must contain a letter or digit")
)

// ProductService mediates all product reads and writes
type ProductService interface {
	ListAll(ctx context.Context) ([]*domain.Product, error)
	ListPaginated(ctx context.Context, page, limit int) (*domain.Page, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	Filter(ctx context.Context, criteria FilterCriteria) ([]*domain.Product, error)
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*UpdateResult, error)
	Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error)
}

// FilterCriteria are the optional conditions of a product filter.
// Every supplied condition must hold.
type FilterCriteria struct {
	BrandID  *uuid.UUID
	Colors   []string
	Sizes    []string
	MinPrice *float64
	MaxPrice *float64
}

// Predicates translates the criteria into repository clauses
func (c FilterCriteria) Predicates() []repository.Predicate {
	var predicates []repository.Predicate

	if c.BrandID != nil {
		predicates = append(predicates, repository.Equal(repository.FieldBrandID, *c.BrandID))
	}
	if len(c.Colors) > 0 {
		predicates = append(predicates, repository.Overlaps(repository.FieldColors, c.Colors))
	}
	if len(c.Sizes) > 0 {
		predicates = append(predicates, repository.Overlaps(repository.FieldSizes, c.Sizes))
	}
	if c.MinPrice != nil || c.MaxPrice != nil {
		predicates = append(predicates, repository.Between(repository.FieldPrice, c.MinPrice, c.MaxPrice))
	}

	return predicates
}

// CreateProductInput holds the fields of a new product. An empty Slug is
// derived from Name.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	Colors      []string
	Sizes       []string
	Slug        string
	CategoryID  uuid.UUID
	BrandID     uuid.UUID
	Images      []uuid.UUID
}

// ProductPatch is a partial update. Nil fields keep their current value;
// a non-nil empty Colors, Sizes or Images slice clears the field.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Stock       *int
	Colors      []string
	Sizes       []string
	Slug        *string
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
	Images      []uuid.UUID
}

// UpdateResult is returned by Update
type UpdateResult struct {
	Message string          `json:"message"`
	Product *domain.Product `json:"product"`
}

// DeleteResult is returned by Delete
type DeleteResult struct {
	Message string `json:"message"`
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	uploadRepo   repository.UploadRepository
	publisher    events.Publisher
	logger       *zap.Logger
	maxPageLimit int
}

// NewProductService creates a new instance of ProductService.
// maxPageLimit caps ListPaginated's limit; values below 1 use DefaultMaxPageLimit.
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	uploadRepo repository.UploadRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	maxPageLimit int,
) ProductService {
	if maxPageLimit < 1 {
		maxPageLimit = DefaultMaxPageLimit
	}
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		uploadRepo:   uploadRepo,
		publisher:    publisher,
		logger:       logger,
		maxPageLimit: maxPageLimit,
	}
}

// ListAll returns every product with its category, brand and images
func (s *productService) ListAll(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// ListPaginated returns one page of products. page < 1 means the first
// page, limit < 1 means DefaultPageLimit.
func (s *productService) ListPaginated(ctx context.Context, page, limit int) (*domain.Page, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > s.maxPageLimit {
		limit = s.maxPageLimit
	}
	// keep (page-1)*limit within int
	if maxPage := math.MaxInt / limit; page > maxPage {
		page = maxPage
	}

	offset := (page - 1) * limit

	products, total, err := s.productRepo.ListPage(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list product page: %w", err)
	}

	return domain.NewPage(products, total, page, limit), nil
}

// GetByID returns a single product
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "get product")
	}
	return product, nil
}

// GetBySlug returns the product with the given slug
func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, classify(err, "get product by slug")
	}
	return product, nil
}

// Filter returns the products satisfying every supplied criterion. An empty
// result is reported as ErrNoProductsMatch.
func (s *productService) Filter(ctx context.Context, criteria FilterCriteria) ([]*domain.Product, error) {
	products, err := s.productRepo.Find(ctx, criteria.Predicates()...)
	if err != nil {
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}

	if len(products) == 0 {
		return nil, ErrNoProductsMatch
	}

	return products, nil
}

// Create validates the product's references and slug and persists it
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	category, err := s.categoryRepo.FindByID(ctx, input.CategoryID)
	if err != nil {
		return nil, classify(err, "check category")
	}

	brand, err := s.brandRepo.FindByID(ctx, input.BrandID)
	if err != nil {
		return nil, classify(err, "check brand")
	}

	images, imageIDs, err := s.resolveImages(ctx, input.Images)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, repository.ErrUploadNotFound
	}

	productSlug := input.Slug
	if productSlug == "" {
		productSlug = slug.Make(input.Name)
	}
	if productSlug == "" {
		return nil, ErrEmptySlug
	}
	if err := s.ensureSlugFree(ctx, productSlug, uuid.Nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Stock:       input.Stock,
		Colors:      orEmpty(input.Colors),
		Sizes:       orEmpty(input.Sizes),
		Slug:        productSlug,
		CategoryID:  category.ID,
		BrandID:     brand.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product, imageIDs); err != nil {
		return nil, classify(err, "create product")
	}

	product.Category = &domain.Summary{ID: category.ID, Name: category.Name, Slug: category.Slug}
	product.Brand = &domain.Summary{ID: brand.ID, Name: brand.Name, Slug: brand.Slug}
	product.Images = images

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
	)
	s.announce(ctx, events.ProductCreated, product.ID, func() error {
		return s.publisher.ProductCreated(ctx, product)
	})

	return product, nil
}

// Update applies patch to the product with the given id. Only supplied
// references are re-validated.
func (s *productService) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (*UpdateResult, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "get product")
	}

	if patch.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *patch.CategoryID); err != nil {
			return nil, classify(err, "check category")
		}
	}

	if patch.BrandID != nil {
		if _, err := s.brandRepo.FindByID(ctx, *patch.BrandID); err != nil {
			return nil, classify(err, "check brand")
		}
	}

	var imageIDs []uuid.UUID
	if patch.Images != nil {
		if _, imageIDs, err = s.resolveImages(ctx, patch.Images); err != nil {
			return nil, err
		}
		if imageIDs == nil {
			imageIDs = []uuid.UUID{}
		}
	}

	if patch.Slug != nil && *patch.Slug != product.Slug {
		if err := s.ensureSlugFree(ctx, *patch.Slug, product.ID); err != nil {
			return nil, err
		}
	}

	applyPatch(product, patch)
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, product, imageIDs); err != nil {
		return nil, classify(err, "update product")
	}

	updated, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "reload product")
	}

	s.logger.Info("Product updated", zap.String("product_id", id.String()))
	s.announce(ctx, events.ProductUpdated, id, func() error {
		return s.publisher.ProductUpdated(ctx, updated)
	})

	return &UpdateResult{Message: MessageProductUpdated, Product: updated}, nil
}

// Delete removes the product with the given id. Its uploads are kept.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) (*DeleteResult, error) {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		return nil, classify(err, "get product")
	}

	if err := s.productRepo.Delete(ctx, id); err != nil {
		return nil, classify(err, "delete product")
	}

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	s.announce(ctx, events.ProductDeleted, id, func() error {
		return s.publisher.ProductDeleted(ctx, id)
	})

	return &DeleteResult{Message: MessageProductDeleted}, nil
}

// ListByCategory returns the products of a category and of all its descendants
func (s *productService) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, classify(err, "check category")
	}

	ids, err := SubtreeIDs(ctx, s.categoryRepo, categoryID)
	if err != nil {
		return nil, err
	}

	products, err := s.productRepo.Find(ctx, repository.In(repository.FieldCategoryID, ids))
	if err != nil {
		return nil, fmt.Errorf("failed to list products by category: %w", err)
	}

	if len(products) == 0 {
		return nil, ErrNoProductsInCategory
	}

	return products, nil
}

// resolveImages loads the uploads behind ids. Duplicates are ignored; every
// distinct id must resolve.
func (s *productService) resolveImages(ctx context.Context, ids []uuid.UUID) ([]domain.Upload, []uuid.UUID, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return []domain.Upload{}, nil, nil
	}

	uploads, err := s.uploadRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve images: %w", err)
	}

	if len(uploads) != len(unique) {
		found := make(map[uuid.UUID]struct{}, len(uploads))
		for _, u := range uploads {
			found[u.ID] = struct{}{}
		}
		var missing []string
		for _, id := range unique {
			if _, ok := found[id]; !ok {
				missing = append(missing, id.String())
			}
		}
		return nil, nil, domain.NewNotFound("image not found: " + strings.Join(missing, ", "))
	}

	return uploads, unique, nil
}

// ensureSlugFree fails with ErrProductSlugExists when a product other than
// owner already uses slug.
func (s *productService) ensureSlugFree(ctx context.Context, slug string, owner uuid.UUID) error {
	existing, err := s.productRepo.FindBySlug(ctx, slug)
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check slug: %w", err)
	case existing.ID != owner:
		return repository.ErrProductSlugExists
	}
	return nil
}

// announce publishes an event; failures are logged and never fail the caller
func (s *productService) announce(ctx context.Context, eventType string, id uuid.UUID, publish func() error) {
	if err := publish(); err != nil {
		s.logger.Warn("Failed to publish product event",
			zap.String("event_type", eventType),
			zap.String("product_id", id.String()),
			zap.Error(err),
		)
	}
}

func applyPatch(product *domain.Product, patch ProductPatch) {
	if patch.Name != nil {
		product.Name = *patch.Name
	}
	if patch.Description != nil {
		product.Description = *patch.Description
	}
	if patch.Price != nil {
		product.Price = *patch.Price
	}
	if patch.Stock != nil {
		product.Stock = *patch.Stock
	}
	if patch.Colors != nil {
		product.Colors = patch.Colors
	}
	if patch.Sizes != nil {
		product.Sizes = patch.Sizes
	}
	if patch.Slug != nil {
		product.Slug = *patch.Slug
	}
	if patch.CategoryID != nil {
		product.CategoryID = *patch.CategoryID
	}
	if patch.BrandID != nil {
		product.BrandID = *patch.BrandID
	}
}

// classify keeps NotFound and Conflict errors intact and adds context to
// anything else.
func classify(err error, op string) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
