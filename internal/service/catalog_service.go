package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/slug"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryService manages the category hierarchy
type CategoryService interface {
	Create(ctx context.Context, name, slug string, parentID *uuid.UUID) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	Children(ctx context.Context, id uuid.UUID) ([]*domain.Category, error)
}

type categoryService struct {
	repo   repository.CategoryRepository
	logger *zap.Logger
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(repo repository.CategoryRepository, logger *zap.Logger) CategoryService {
	return &categoryService{repo: repo, logger: logger}
}

func (s *categoryService) Create(ctx context.Context, name, categorySlug string, parentID *uuid.UUID) (*domain.Category, error) {
	if parentID != nil {
		if _, err := s.repo.FindByID(ctx, *parentID); err != nil {
			if errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, repository.ErrParentCategoryMissing
			}
			return nil, classify(err, "check parent category")
		}
	}

	if categorySlug == "" {
		categorySlug = slug.Make(name)
	}
	if categorySlug == "" {
		return nil, ErrEmptySlug
	}

	category := &domain.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      categorySlug,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, classify(err, "create category")
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("slug", category.Slug),
	)
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, classify(err, "list categories")
	}
	return categories, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "get category")
	}
	return category, nil
}

// Children lists the direct subcategories of an existing category
func (s *categoryService) Children(ctx context.Context, id uuid.UUID) ([]*domain.Category, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, classify(err, "get category")
	}

	children, err := s.repo.Children(ctx, id)
	if err != nil {
		return nil, classify(err, "list subcategories")
	}
	return children, nil
}

// BrandService manages brands
type BrandService interface {
	Create(ctx context.Context, name, slug string) (*domain.Brand, error)
	List(ctx context.Context) ([]*domain.Brand, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Brand, error)
}

type brandService struct {
	repo   repository.BrandRepository
	logger *zap.Logger
}

// NewBrandService creates a new instance of BrandService
func NewBrandService(repo repository.BrandRepository, logger *zap.Logger) BrandService {
	return &brandService{repo: repo, logger: logger}
}

func (s *brandService) Create(ctx context.Context, name, brandSlug string) (*domain.Brand, error) {
	if brandSlug == "" {
		brandSlug = slug.Make(name)
	}
	if brandSlug == "" {
		return nil, ErrEmptySlug
	}

	brand := &domain.Brand{
		ID:        uuid.New(),
		Name:      name,
		Slug:      brandSlug,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, brand); err != nil {
		return nil, classify(err, "create brand")
	}

	s.logger.Info("Brand created", zap.String("brand_id", brand.ID.String()))
	return brand, nil
}

func (s *brandService) List(ctx context.Context) ([]*domain.Brand, error) {
	brands, err := s.repo.List(ctx)
	if err != nil {
		return nil, classify(err, "list brands")
	}
	return brands, nil
}

func (s *brandService) Get(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	brand, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "get brand")
	}
	return brand, nil
}

// UploadService records references to files stored elsewhere
type UploadService interface {
	Register(ctx context.Context, fileURL string) (*domain.Upload, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Upload, error)
}

type uploadService struct {
	repo repository.UploadRepository
}

// NewUploadService creates a new instance of UploadService
func NewUploadService(repo repository.UploadRepository) UploadService {
	return &uploadService{repo: repo}
}

func (s *uploadService) Register(ctx context.Context, fileURL string) (*domain.Upload, error) {
	upload := &domain.Upload{
		ID:        uuid.New(),
		FileURL:   fileURL,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, upload); err != nil {
		return nil, classify(err, "register upload")
	}
	return upload, nil
}

func (s *uploadService) Get(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	upload, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, classify(err, "get upload")
	}
	return upload, nil
}
