// Package store persists catalog rows in the hosted backend's REST tables.
// Rows are read and written with the caller's token, so row-level policies
// decide what an anonymous visitor or an admin may touch.
package store

import (
	"context"

	"storefront/internal/backend"
	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
)

const (
	productsTable   = "products"
	categoriesTable = "categories"
)

// ProductStore reads and writes the products table.
type ProductStore struct {
	t backend.Table[models.Product]
}

func NewProductStore(client backend.TableClient) *ProductStore {
	return &ProductStore{t: backend.NewTable[models.Product](client, productsTable)}
}

// List returns the products matching q, newest first.
func (s *ProductStore) List(ctx context.Context, token string, q models.ProductQuery) ([]models.Product, error) {
	f := backend.NewFilter().Order("created_at", false)
	if q.Category != "" {
		f.Eq("category", q.Category)
	}
	if q.FeaturedOnly {
		f.Eq("featured", true)
	}
	if q.Search != "" {
		f.SearchAny(q.Search, "name", "description")
	}
	return s.t.List(ctx, token, f)
}

func (s *ProductStore) Get(ctx context.Context, token string, productID id.ProductID) (*models.Product, error) {
	return s.t.Get(ctx, token, productID)
}

func (s *ProductStore) Create(ctx context.Context, token string, in *models.ProductInput) (*models.Product, error) {
	return s.t.Insert(ctx, token, in)
}

func (s *ProductStore) Update(ctx context.Context, token string, productID id.ProductID, patch *models.ProductPatch) (*models.Product, error) {
	return s.t.Update(ctx, token, productID, patch)
}

func (s *ProductStore) Delete(ctx context.Context, token string, productID id.ProductID) error {
	return s.t.Delete(ctx, token, productID)
}

// CategoryStore reads and writes the categories table.
type CategoryStore struct {
	t backend.Table[models.Category]
}

func NewCategoryStore(client backend.TableClient) *CategoryStore {
	return &CategoryStore{t: backend.NewTable[models.Category](client, categoriesTable)}
}

// List returns categories ordered by display_order.
func (s *CategoryStore) List(ctx context.Context, token string, q models.CategoryQuery) ([]models.Category, error) {
	f := backend.NewFilter().Order("display_order", true)
	if q.ActiveOnly {
		f.Eq("is_active", true)
	}
	return s.t.List(ctx, token, f)
}

func (s *CategoryStore) Get(ctx context.Context, token string, categoryID id.CategoryID) (*models.Category, error) {
	return s.t.Get(ctx, token, categoryID)
}

func (s *CategoryStore) Create(ctx context.Context, token string, in *models.CategoryInput) (*models.Category, error) {
	return s.t.Insert(ctx, token, in)
}

func (s *CategoryStore) Update(ctx context.Context, token string, categoryID id.CategoryID, patch *models.CategoryPatch) (*models.Category, error) {
	return s.t.Update(ctx, token, categoryID, patch)
}

func (s *CategoryStore) Delete(ctx context.Context, token string, categoryID id.CategoryID) error {
	return s.t.Delete(ctx, token, categoryID)
}
