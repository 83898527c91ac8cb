package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a product category. Categories with a ParentID form a forest.
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Slug      string     `json:"slug" db:"slug"`
	ParentID  *uuid.UUID `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Brand represents a product brand
type Brand struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Upload is a durable reference to a stored file
type Upload struct {
	ID        uuid.UUID `json:"id" db:"id"`
	FileURL   string    `json:"fileUrl" db:"file_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
