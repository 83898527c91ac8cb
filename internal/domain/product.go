package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	Colors      []string  `json:"colors" db:"colors"`
	Sizes       []string  `json:"sizes" db:"sizes"`
	Slug        string    `json:"slug" db:"slug"`
	CategoryID  uuid.UUID `json:"categoryId" db:"category_id"`
	BrandID     uuid.UUID `json:"brandId" db:"brand_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`

	Category *Summary `json:"category,omitempty"`
	Brand    *Summary `json:"brand,omitempty"`
	Images   []Upload `json:"images"`
}

// Summary is the nested projection of a category or brand on a product
type Summary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// Page is one page of products together with the counters needed to page further
type Page struct {
	Data       []*Product `json:"data"`
	Total      int        `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
}

// NewPage computes the page count for a result of total rows split into pages of limit rows.
func NewPage(data []*Product, total, page, limit int) *Page {
	totalPages := 0
	if limit > 0 {
		totalPages = total / limit
		if total%limit > 0 {
			totalPages++
		}
	}

	if data == nil {
		data = []*Product{}
	}

	return &Page{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
