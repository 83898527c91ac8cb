package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCategoryRequest is the body of POST /api/categories
type CreateCategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=100"`
	Slug     string  `json:"slug" validate:"omitempty,max=150"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
}

// CreateBrandRequest is the body of POST /api/brands
type CreateBrandRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=150"`
}

// RegisterUploadRequest is the body of POST /api/uploads
type RegisterUploadRequest struct {
	FileURL string `json:"fileUrl" validate:"required,url,max=500"`
}

// CategoryHandler serves /api/categories
type CategoryHandler struct {
	categories service.CategoryService
	logger     *zap.Logger
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories service.CategoryService, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

func (h *CategoryHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Get("/{id}/children", h.Children)
		r.With(admin).Post("/", h.Create)
	})
}

func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	category, err := h.categories.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, category)
}

func (h *CategoryHandler) Children(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	children, err := h.categories.Children(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, children)
}

func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		id := uuid.MustParse(*req.ParentID)
		parentID = &id
	}

	category, err := h.categories.Create(r.Context(), req.Name, req.Slug, parentID)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// BrandHandler serves /api/brands
type BrandHandler struct {
	brands service.BrandService
	logger *zap.Logger
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brands service.BrandService, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{brands: brands, logger: logger}
}

func (h *BrandHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/api/brands", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.With(admin).Post("/", h.Create)
	})
}

func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.brands.List(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, brands)
}

func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	brand, err := h.brands.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, brand)
}

func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBrandRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	brand, err := h.brands.Create(r.Context(), req.Name, req.Slug)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, brand)
}

// UploadHandler serves /api/uploads. Files are stored elsewhere; only their
// references are registered here.
type UploadHandler struct {
	uploads service.UploadService
	logger  *zap.Logger
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploads service.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, logger: logger}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Route("/api/uploads", func(r chi.Router) {
		r.Get("/{id}", h.Get)
		r.With(admin).Post("/", h.Register)
	})
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	upload, err := h.uploads.Get(r.Context(), id)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, upload)
}

func (h *UploadHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUploadRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	upload, err := h.uploads.Register(r.Context(), req.FileURL)
	if err != nil {
		middleware.RespondWithDomainError(w, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusCreated, upload)
}
