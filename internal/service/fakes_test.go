package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

var errStoreDown = errors.New("connection refused")

type fakeProductRepository struct {
	mu       sync.Mutex
	products map[uuid.UUID]*domain.Product
	images   map[uuid.UUID][]uuid.UUID
	order    []uuid.UUID
	uploads  *fakeUploadRepository
	failWith error
}

func newFakeProductRepository(uploads *fakeUploadRepository) *fakeProductRepository {
	return &fakeProductRepository{
		products: make(map[uuid.UUID]*domain.Product),
		images:   make(map[uuid.UUID][]uuid.UUID),
		uploads:  uploads,
	}
}

func (f *fakeProductRepository) Create(ctx context.Context, product *domain.Product, imageIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return f.failWith
	}
	for _, p := range f.products {
		if p.Slug == product.Slug {
			return repository.ErrProductSlugExists
		}
	}

	stored := *product
	stored.Category, stored.Brand, stored.Images = nil, nil, nil
	f.products[product.ID] = &stored
	f.images[product.ID] = append([]uuid.UUID(nil), imageIDs...)
	f.order = append(f.order, product.ID)
	return nil
}

func (f *fakeProductRepository) Update(ctx context.Context, product *domain.Product, imageIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	for id, p := range f.products {
		if id != product.ID && p.Slug == product.Slug {
			return repository.ErrProductSlugExists
		}
	}

	stored := *product
	stored.Category, stored.Brand, stored.Images = nil, nil, nil
	f.products[product.ID] = &stored
	if imageIDs != nil {
		f.images[product.ID] = append([]uuid.UUID(nil), imageIDs...)
	}
	return nil
}

func (f *fakeProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(f.products, id)
	delete(f.images, id)
	for i, candidate := range f.order {
		if candidate == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return f.hydrate(p), nil
}

func (f *fakeProductRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.products {
		if p.Slug == slug {
			return f.hydrate(p), nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (f *fakeProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return f.Find(ctx)
}

func (f *fakeProductRepository) ListPage(ctx context.Context, limit, offset int) ([]*domain.Product, int, error) {
	all, err := f.Find(ctx)
	if err != nil {
		return nil, 0, err
	}
	if offset >= len(all) {
		return []*domain.Product{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (f *fakeProductRepository) Find(ctx context.Context, predicates ...repository.Predicate) ([]*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return nil, f.failWith
	}
	out := []*domain.Product{}
	for _, id := range f.order {
		p := f.products[id]
		if repository.MatchesAll(p, predicates) {
			out = append(out, f.hydrate(p))
		}
	}
	return out, nil
}

func (f *fakeProductRepository) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.products)
}

func (f *fakeProductRepository) hydrate(p *domain.Product) *domain.Product {
	out := *p
	out.Colors = append([]string(nil), p.Colors...)
	out.Sizes = append([]string(nil), p.Sizes...)
	out.Category = &domain.Summary{ID: p.CategoryID}
	out.Brand = &domain.Summary{ID: p.BrandID}
	out.Images = []domain.Upload{}
	if f.uploads != nil {
		images, _ := f.uploads.FindByIDs(context.Background(), f.images[p.ID])
		out.Images = images
	}
	return &out
}

type fakeCategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
	children   map[uuid.UUID][]uuid.UUID
	calls      int
}

func newFakeCategoryRepository() *fakeCategoryRepository {
	return &fakeCategoryRepository{
		categories: make(map[uuid.UUID]*domain.Category),
		children:   make(map[uuid.UUID][]uuid.UUID),
	}
}

// add stores a category under parent; a nil parent makes it a root
func (f *fakeCategoryRepository) add(name string, parent *uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.categories[id] = &domain.Category{ID: id, Name: name, Slug: name, ParentID: parent}
	if parent != nil {
		f.children[*parent] = append(f.children[*parent], id)
	}
	return id
}

// link adds an extra parent edge, which is how tests build cyclic data
func (f *fakeCategoryRepository) link(parent, child uuid.UUID) {
	f.children[parent] = append(f.children[parent], child)
}

func (f *fakeCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.categories {
		if c.Slug == category.Slug {
			return repository.ErrCategoryAlreadyExists
		}
	}
	stored := *category
	f.categories[category.ID] = &stored
	if category.ParentID != nil {
		f.children[*category.ParentID] = append(f.children[*category.ParentID], category.ID)
	}
	return nil
}

func (f *fakeCategoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*domain.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (f *fakeCategoryRepository) Children(ctx context.Context, parentID uuid.UUID) ([]*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	out := []*domain.Category{}
	for _, id := range f.children[parentID] {
		out = append(out, f.categories[id])
	}
	return out, nil
}

type fakeBrandRepository struct {
	brands map[uuid.UUID]*domain.Brand
}

func newFakeBrandRepository() *fakeBrandRepository {
	return &fakeBrandRepository{brands: make(map[uuid.UUID]*domain.Brand)}
}

func (f *fakeBrandRepository) add(name string) uuid.UUID {
	id := uuid.New()
	f.brands[id] = &domain.Brand{ID: id, Name: name, Slug: name}
	return id
}

func (f *fakeBrandRepository) Create(ctx context.Context, brand *domain.Brand) error {
	for _, b := range f.brands {
		if b.Slug == brand.Slug {
			return repository.ErrBrandAlreadyExists
		}
	}
	stored := *brand
	f.brands[brand.ID] = &stored
	return nil
}

func (f *fakeBrandRepository) List(ctx context.Context) ([]*domain.Brand, error) {
	out := make([]*domain.Brand, 0, len(f.brands))
	for _, b := range f.brands {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Brand, error) {
	b, ok := f.brands[id]
	if !ok {
		return nil, repository.ErrBrandNotFound
	}
	return b, nil
}

type fakeUploadRepository struct {
	mu      sync.Mutex
	uploads map[uuid.UUID]domain.Upload
}

func newFakeUploadRepository() *fakeUploadRepository {
	return &fakeUploadRepository{uploads: make(map[uuid.UUID]domain.Upload)}
}

func (f *fakeUploadRepository) add(url string) uuid.UUID {
	id := uuid.New()
	f.uploads[id] = domain.Upload{ID: id, FileURL: url}
	return id
}

func (f *fakeUploadRepository) Create(ctx context.Context, upload *domain.Upload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[upload.ID] = *upload
	return nil
}

func (f *fakeUploadRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.uploads[id]
	if !ok {
		return nil, repository.ErrUploadNotFound
	}
	return &u, nil
}

func (f *fakeUploadRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []domain.Upload{}
	for _, id := range ids {
		if u, ok := f.uploads[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type recordedEvent struct {
	eventType string
	productID uuid.UUID
}

type recordingPublisher struct {
	mu       sync.Mutex
	events   []recordedEvent
	failWith error
}

func (p *recordingPublisher) record(eventType string, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.events = append(p.events, recordedEvent{eventType: eventType, productID: id})
	return nil
}

func (p *recordingPublisher) ProductCreated(ctx context.Context, product *domain.Product) error {
	return p.record(events.ProductCreated, product.ID)
}

func (p *recordingPublisher) ProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.record(events.ProductUpdated, product.ID)
}

func (p *recordingPublisher) ProductDeleted(ctx context.Context, id uuid.UUID) error {
	return p.record(events.ProductDeleted, id)
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}
