package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	products   ProductRepository
	categories CategoryRepository
	brands     BrandRepository
	uploads    UploadRepository

	root, child, grandchild uuid.UUID
	brandA, brandB          uuid.UUID
	images                  []uuid.UUID
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()
	resetCatalog(t)
	ctx := context.Background()

	f := &catalogFixture{
		products:   NewProductRepository(testDB),
		categories: NewCategoryRepository(testDB),
		brands:     NewBrandRepository(testDB),
		uploads:    NewUploadRepository(testDB),
	}

	now := time.Now().UTC()
	addCategory := func(name string, parent *uuid.UUID) uuid.UUID {
		c := &domain.Category{ID: uuid.New(), Name: name, Slug: name, ParentID: parent, CreatedAt: now}
		require.NoError(t, f.categories.Create(ctx, c))
		return c.ID
	}
	f.root = addCategory("clothing", nil)
	f.child = addCategory("shirts", &f.root)
	f.grandchild = addCategory("polo", &f.child)

	addBrand := func(name string) uuid.UUID {
		b := &domain.Brand{ID: uuid.New(), Name: name, Slug: name, CreatedAt: now}
		require.NoError(t, f.brands.Create(ctx, b))
		return b.ID
	}
	f.brandA = addBrand("acme")
	f.brandB = addBrand("globex")

	for i := 0; i < 2; i++ {
		u := &domain.Upload{ID: uuid.New(), FileURL: "https://cdn.example.com/" + uuid.NewString() + ".png", CreatedAt: now.Add(time.Duration(i) * time.Second)}
		require.NoError(t, f.uploads.Create(ctx, u))
		f.images = append(f.images, u.ID)
	}

	return f
}

func (f *catalogFixture) product(name string, price float64, category, brand uuid.UUID, colors, sizes []string) *domain.Product {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " description",
		Price:       price,
		Stock:       5,
		Colors:      colors,
		Sizes:       sizes,
		Slug:        name,
		CategoryID:  category,
		BrandID:     brand,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductRepositoryCreateAndFind(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	p := f.product("oxford", 49.99, f.child, f.brandA, []string{"white"}, []string{"M", "L"})
	require.NoError(t, f.products.Create(ctx, p, f.images))

	got, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.InDelta(t, p.Price, got.Price, 0.001)
	assert.Equal(t, p.Colors, got.Colors)
	assert.Equal(t, p.Sizes, got.Sizes)
	assert.Equal(t, "shirts", got.Category.Name)
	assert.Equal(t, "acme", got.Brand.Name)
	require.Len(t, got.Images, 2)
	assert.Equal(t, f.images[0], got.Images[0].ID)

	bySlug, err := f.products.FindBySlug(ctx, "oxford")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	_, err = f.products.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestProductRepositoryClassifiesConstraintViolations(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	require.NoError(t, f.products.Create(ctx, f.product("tee", 10, f.root, f.brandA, nil, nil), nil))

	err := f.products.Create(ctx, f.product("tee", 12, f.root, f.brandA, nil, nil), nil)
	assert.ErrorIs(t, err, ErrProductSlugExists)
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = f.products.Create(ctx, f.product("ghost-brand", 12, f.root, uuid.New(), nil, nil), nil)
	assert.ErrorIs(t, err, ErrProductReference)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = f.products.Create(ctx, f.product("ghost-image", 12, f.root, f.brandA, nil, nil), []uuid.UUID{uuid.New()})
	assert.ErrorIs(t, err, ErrProductReference)

	_, err = f.products.FindBySlug(ctx, "ghost-image")
	assert.ErrorIs(t, err, ErrProductNotFound, "failed image link must roll back the insert")
}

func TestProductRepositoryFindWithPredicates(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	cheap := f.product("cheap", 0, f.root, f.brandA, []string{"red"}, []string{"S"})
	mid := f.product("mid", 25, f.child, f.brandB, []string{"blue", "red"}, []string{"M"})
	dear := f.product("dear", 100, f.grandchild, f.brandA, []string{"black"}, []string{"L"})
	for _, p := range []*domain.Product{cheap, mid, dear} {
		require.NoError(t, f.products.Create(ctx, p, nil))
	}

	ids := func(products []*domain.Product) []uuid.UUID {
		out := make([]uuid.UUID, len(products))
		for i, p := range products {
			out[i] = p.ID
		}
		return out
	}

	all, err := f.products.Find(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := f.products.Find(ctx, Overlaps(FieldColors, []string{"red"}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{cheap.ID, mid.ID}, ids(got))

	got, err = f.products.Find(ctx, Between(FieldPrice, ptr(0), ptr(25)))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{cheap.ID, mid.ID}, ids(got))

	got, err = f.products.Find(ctx, Equal(FieldBrandID, f.brandA), Overlaps(FieldSizes, []string{"L", "XL"}))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{dear.ID}, ids(got))

	got, err = f.products.Find(ctx, In(FieldCategoryID, []uuid.UUID{f.child, f.grandchild}))
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{mid.ID, dear.ID}, ids(got))

	got, err = f.products.Find(ctx, Overlaps(FieldColors, []string{"green"}))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestProductRepositoryListPage(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := f.product("item-"+uuid.NewString()[:6], float64(i), f.root, f.brandA, nil, nil)
		require.NoError(t, f.products.Create(ctx, p, nil))
	}

	page, total, err := f.products.ListPage(ctx, 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 1)

	page, total, err = f.products.ListPage(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, page)
}

func TestProductRepositoryUpdateImageLinks(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	p := f.product("hoodie", 60, f.root, f.brandA, nil, nil)
	require.NoError(t, f.products.Create(ctx, p, f.images))

	p.Name = "zip hoodie"
	require.NoError(t, f.products.Update(ctx, p, nil))
	got, err := f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "zip hoodie", got.Name)
	assert.Len(t, got.Images, 2, "nil image ids keep existing links")

	require.NoError(t, f.products.Update(ctx, p, f.images[1:]))
	got, err = f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, f.images[1], got.Images[0].ID)

	require.NoError(t, f.products.Update(ctx, p, []uuid.UUID{}))
	got, err = f.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Images)

	missing := f.product("missing", 1, f.root, f.brandA, nil, nil)
	assert.ErrorIs(t, f.products.Update(ctx, missing, nil), ErrProductNotFound)
}

func TestProductRepositoryDeleteKeepsUploads(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	p := f.product("cap", 15, f.root, f.brandB, nil, nil)
	require.NoError(t, f.products.Create(ctx, p, f.images))

	require.NoError(t, f.products.Delete(ctx, p.ID))

	var links int
	require.NoError(t, testDB.QueryRow(`SELECT COUNT(*) FROM product_images WHERE product_id = $1`, p.ID).Scan(&links))
	assert.Zero(t, links)

	uploads, err := f.uploads.FindByIDs(ctx, f.images)
	require.NoError(t, err)
	assert.Len(t, uploads, 2)

	assert.ErrorIs(t, f.products.Delete(ctx, p.ID), ErrProductNotFound)
}

func TestCategoryRepositoryChildren(t *testing.T) {
	f := newCatalogFixture(t)
	ctx := context.Background()

	children, err := f.categories.Children(ctx, f.root)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, f.child, children[0].ID)

	leaves, err := f.categories.Children(ctx, f.grandchild)
	require.NoError(t, err)
	assert.Empty(t, leaves)

	orphan := uuid.New()
	err = f.categories.Create(ctx, &domain.Category{ID: uuid.New(), Name: "orphan", Slug: "orphan", ParentID: &orphan, CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrParentCategoryMissing)

	err = f.categories.Create(ctx, &domain.Category{ID: uuid.New(), Name: "dup", Slug: "shirts", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrCategoryAlreadyExists)
}
