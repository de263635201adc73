package domain

import (
	"time"

	"github.com/google/uuid"
)

// Bounds enforced at write time on catalog entities.
const (
	CategoryNameMaxLen = 30
	DisplayOrderMin    = 1
	DisplayOrderMax    = 100
	ProductPriceMin    = 1
	ProductPriceMax    = 1000
)

// DefaultProductImage is used when a product is created without images.
const DefaultProductImage = "/public/img/products/default.jpg"

// Category groups products and controls their display position.
type Category struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	DisplayOrder int       `json:"displayOrder"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Product is a catalog item. Category is populated by repository reads that
// join the categories table.
type Product struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	ISBN        string    `json:"isbn,omitempty"`
	Price       float64   `json:"price"`
	CategoryID  uuid.UUID `json:"categoryId"`
	Category    *Category `json:"category,omitempty"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
