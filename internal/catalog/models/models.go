// Package models holds the catalog's products and categories as stored in
// the hosted backend's products and categories tables.
package models

import (
	"time"

	id "storefront/pkg/domain"
)

type Product struct {
	ID             id.ProductID      `json:"id"`
	Name           string            `json:"name"`
	Category       string            `json:"category"`
	Price          float64           `json:"price"`
	OriginalPrice  *float64          `json:"original_price,omitempty"`
	Description    string            `json:"description,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Rating         *float64          `json:"rating,omitempty"`
	ReviewsCount   int               `json:"reviews_count"`
	InStock        bool              `json:"in_stock"`
	StockQuantity  int               `json:"stock_quantity"`
	Features       []string          `json:"features,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Featured       bool              `json:"featured"`
	CreatedAt      time.Time         `json:"created_at,omitzero"`
	UpdatedAt      time.Time         `json:"updated_at,omitzero"`
}

// OnSale reports whether the product is discounted from its original price.
func (p *Product) OnSale() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

type Category struct {
	ID           id.CategoryID `json:"id"`
	Name         string        `json:"name"`
	Slug         string        `json:"slug"`
	Description  string        `json:"description,omitempty"`
	DisplayOrder int           `json:"display_order"`
	IsActive     bool          `json:"is_active"`
	CreatedAt    time.Time     `json:"created_at,omitzero"`
	UpdatedAt    time.Time     `json:"updated_at,omitzero"`
}

// ProductQuery selects products. Zero fields do not filter. Results are
// always newest first.
type ProductQuery struct {
	Category     string
	Search       string
	FeaturedOnly bool
}

// CategoryQuery selects categories, always ordered by display_order.
type CategoryQuery struct {
	ActiveOnly bool
}
