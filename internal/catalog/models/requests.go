package models

import (
	"strings"

	strs "storefront/pkg/platform/strings"
	s "storefront/pkg/string"
	"storefront/pkg/validation"
)

// ProductInput creates a product.
type ProductInput struct {
	Name           string            `json:"name" validate:"notblank,max=200"`
	Category       string            `json:"category" validate:"notblank,max=100"`
	Price          float64           `json:"price" validate:"gte=0"`
	OriginalPrice  *float64          `json:"original_price,omitempty" validate:"omitempty,gtefield=Price"`
	Description    string            `json:"description,omitempty" validate:"max=5000"`
	ImageURL       string            `json:"image_url,omitempty" validate:"omitempty,url,max=2048"`
	Images         []string          `json:"images,omitempty" validate:"max=20,dive,url,max=2048"`
	Rating         *float64          `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	InStock        *bool             `json:"in_stock,omitempty"`
	StockQuantity  int               `json:"stock_quantity" validate:"gte=0"`
	Features       []string          `json:"features,omitempty" validate:"max=50,dive,max=200"`
	Specifications map[string]string `json:"specifications,omitempty" validate:"max=50,dive,keys,max=100,endkeys,max=500"`
	Featured       bool              `json:"featured"`
}

// Normalize trims text fields, drops duplicate images and features, and
// derives in_stock from the quantity when it is not given.
func (r *ProductInput) Normalize() {
	s.TrimStrings(&r.Name, &r.Category, &r.ImageURL)
	r.Images = strs.DedupeAndTrim(r.Images)
	r.Features = strs.DedupeAndTrim(r.Features)
	if r.InStock == nil {
		inStock := r.StockQuantity > 0
		r.InStock = &inStock
	}
}

func (r *ProductInput) Validate() error {
	return validation.Validate(r)
}

// ProductPatch updates a product. Nil fields are left unchanged.
type ProductPatch struct {
	Name           *string            `json:"name,omitempty" validate:"omitempty,notblank,max=200"`
	Category       *string            `json:"category,omitempty" validate:"omitempty,notblank,max=100"`
	Price          *float64           `json:"price,omitempty" validate:"omitempty,gte=0"`
	OriginalPrice  *float64           `json:"original_price,omitempty" validate:"omitempty,gte=0"`
	Description    *string            `json:"description,omitempty" validate:"omitempty,max=5000"`
	ImageURL       *string            `json:"image_url,omitempty" validate:"omitempty,max=2048"`
	Images         *[]string          `json:"images,omitempty" validate:"omitempty,max=20,dive,url,max=2048"`
	Rating         *float64           `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	InStock        *bool              `json:"in_stock,omitempty"`
	StockQuantity  *int               `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	Features       *[]string          `json:"features,omitempty" validate:"omitempty,max=50"`
	Specifications *map[string]string `json:"specifications,omitempty" validate:"omitempty,max=50"`
	Featured       *bool              `json:"featured,omitempty"`
}

func (r *ProductPatch) Normalize() {
	for _, p := range []*string{r.Name, r.Category, r.ImageURL} {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	r.Images = strs.DedupeAndTrimPtr(r.Images)
	r.Features = strs.DedupeAndTrimPtr(r.Features)
}

func (r *ProductPatch) Validate() error {
	return validation.Validate(r)
}

// TouchesPricing reports whether the patch changes price or original price.
func (r *ProductPatch) TouchesPricing() bool {
	return r.Price != nil || r.OriginalPrice != nil
}

// IsEmpty reports a patch that changes nothing.
func (r *ProductPatch) IsEmpty() bool {
	return *r == ProductPatch{}
}

// CategoryInput creates a category. An empty slug is derived from the name.
type CategoryInput struct {
	Name         string `json:"name" validate:"notblank,max=100"`
	Slug         string `json:"slug" validate:"required,slug,max=100"`
	Description  string `json:"description,omitempty" validate:"max=1000"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

func (r *CategoryInput) Normalize() {
	s.TrimStrings(&r.Name, &r.Slug, &r.Description)
	if r.Slug == "" {
		r.Slug = s.Slugify(r.Name)
	} else {
		r.Slug = s.Slugify(r.Slug)
	}
	if r.IsActive == nil {
		active := true
		r.IsActive = &active
	}
}

func (r *CategoryInput) Validate() error {
	return validation.Validate(r)
}

// CategoryPatch updates a category. Nil fields are left unchanged.
type CategoryPatch struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Slug         *string `json:"slug,omitempty" validate:"omitempty,slug,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	DisplayOrder *int    `json:"display_order,omitempty" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (r *CategoryPatch) Normalize() {
	if r.Name != nil {
		*r.Name = strings.TrimSpace(*r.Name)
	}
	if r.Slug != nil {
		slug := s.Slugify(*r.Slug)
		r.Slug = &slug
	}
}

func (r *CategoryPatch) Validate() error {
	return validation.Validate(r)
}

func (r *CategoryPatch) IsEmpty() bool {
	return *r == CategoryPatch{}
}
