package transport

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest is the body of POST /api/products
type CreateProductRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0,lte=99999999.99"`
	Stock       *int     `json:"stock" validate:"required,gte=0,lte=2147483647"`
	Colors      []string `json:"colors" validate:"omitempty,dive,required"`
	Sizes       []string `json:"sizes" validate:"omitempty,dive,required"`
	Slug        string   `json:"slug" validate:"omitempty,max=255"`
	CategoryID  string   `json:"categoryId" validate:"required,uuid"`
	BrandID     string   `json:"brandId" validate:"required,uuid"`
	Images      []string `json:"images" validate:"required,min=1,dive,uuid"`
}

// UpdateProductRequest is the body of PATCH /api/products/{id}. Absent
// fields keep their value.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0,lte=99999999.99"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0,lte=2147483647"`
	Colors      []string `json:"colors" validate:"omitempty,dive,required"`
	Sizes       []string `json:"sizes" validate:"omitempty,dive,required"`
	Slug        *string  `json:"slug" validate:"omitempty,min=1,max=255"`
	CategoryID  *string  `json:"categoryId" validate:"omitempty,uuid"`
	BrandID     *string  `json:"brandId" validate:"omitempty,uuid"`
	Images      []string `json:"images" validate:"omitempty,dive,uuid"`
}

// ProductHandler serves the catalog endpoints
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, logger: logger}
}

// RegisterRoutes mounts the product routes. Writes go through admin.
func (h *ProductHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListAll)
		r.Get("/paginate", h.ListPaginated)
		r.Get("/filter", h.Filter)
		r.Get("/category/{id}", h.ListByCategory)
		r.Get("/slug/{slug}", h.GetBySlug)
		r.Get("/{id}", h.GetByID)

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/", h.Create)
			r.Patch("/{id}", h.Update)
			r.Delete("/{id}", h.Delete)
		})
	})
}

func (h *ProductHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListAll(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// ListPaginated serves ?page=&limit=. Missing or malformed values fall back
// to the service defaults.
func (h *ProductHandler) ListPaginated(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.products.ListPaginated(r.Context(), page, limit)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Filter(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.products.Filter(r.Context(), criteria)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	products, err := h.products.ListByCategory(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	// The validator has already checked every id.
	images, _ := parseUUIDs(req.Images)
	input := service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		Stock:       *req.Stock,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Slug:        req.Slug,
		CategoryID:  uuid.MustParse(req.CategoryID),
		BrandID:     uuid.MustParse(req.BrandID),
		Images:      images,
	}

	product, err := h.products.Create(r.Context(), input)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req UpdateProductRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	images, _ := parseUUIDs(req.Images)
	patch := service.ProductPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Colors:      req.Colors,
		Sizes:       req.Sizes,
		Slug:        req.Slug,
		CategoryID:  optionalUUID(req.CategoryID),
		BrandID:     optionalUUID(req.BrandID),
		Images:      images,
	}

	result, err := h.products.Update(r.Context(), id, patch)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.products.Delete(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// parseFilter reads brandId, colors, sizes, minPrice and maxPrice. colors and
// sizes may repeat or hold comma separated values.
func parseFilter(r *http.Request) (service.FilterCriteria, error) {
	q := r.URL.Query()
	var criteria service.FilterCriteria

	if raw := q.Get("brandId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return criteria, errInvalidParam("brandId")
		}
		criteria.BrandID = &id
	}

	criteria.Colors = listParam(q["colors"])
	criteria.Sizes = listParam(q["sizes"])

	var err error
	if criteria.MinPrice, err = floatParam(q.Get("minPrice"), "minPrice"); err != nil {
		return criteria, err
	}
	if criteria.MaxPrice, err = floatParam(q.Get("maxPrice"), "maxPrice"); err != nil {
		return criteria, err
	}

	return criteria, nil
}

func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatParam(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, errInvalidParam(name)
	}
	return &v, nil
}

func optionalUUID(raw *string) *uuid.UUID {
	if raw == nil {
		return nil
	}
	id := uuid.MustParse(*raw)
	return &id
}

type errInvalidParam string

func (e errInvalidParam) Error() string {
	return "invalid query parameter: " + string(e)
}
