package transport

import (
	"context"
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/service"

	"github.com/google/uuid"
)

// stubProductService returns canned results and records the last call
type stubProductService struct {
	product *domain.Product
	page    *domain.Page
	err     error

	gotPage, gotLimit int
	gotCriteria       service.FilterCriteria
	gotInput          service.CreateProductInput
	gotPatch          service.ProductPatch
	gotID             uuid.UUID
	gotSlug           string
}

func (s *stubProductService) ListAll(ctx context.Context) ([]*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Product{s.product}, nil
}

func (s *stubProductService) ListPaginated(ctx context.Context, page, limit int) (*domain.Page, error) {
	s.gotPage, s.gotLimit = page, limit
	return s.page, s.err
}

func (s *stubProductService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	s.gotID = id
	return s.product, s.err
}

func (s *stubProductService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	s.gotSlug = slug
	return s.product, s.err
}

func (s *stubProductService) Filter(ctx context.Context, criteria service.FilterCriteria) ([]*domain.Product, error) {
	s.gotCriteria = criteria
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Product{s.product}, nil
}

func (s *stubProductService) Create(ctx context.Context, input service.CreateProductInput) (*domain.Product, error) {
	s.gotInput = input
	return s.product, s.err
}

func (s *stubProductService) Update(ctx context.Context, id uuid.UUID, patch service.ProductPatch) (*service.UpdateResult, error) {
	s.gotID, s.gotPatch = id, patch
	if s.err != nil {
		return nil, s.err
	}
	return &service.UpdateResult{Message: service.MessageProductUpdated, Product: s.product}, nil
}

func (s *stubProductService) Delete(ctx context.Context, id uuid.UUID) (*service.DeleteResult, error) {
	s.gotID = id
	if s.err != nil {
		return nil, s.err
	}
	return &service.DeleteResult{Message: service.MessageProductDeleted}, nil
}

func (s *stubProductService) ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	s.gotID = categoryID
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Product{s.product}, nil
}

// passthrough stands in for the admin middleware chain
func passthrough(next http.Handler) http.Handler { return next }

// forbid stands in for an admin chain that rejects every caller
func forbid(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
}
