package service

import (
	"context"

	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/catalog-mocks.go -package=mocks ProductStore,CategoryStore

// ProductStore persists products.
// Error Contract: Get and Update return (nil, nil) when no row has the id;
// other failures are *backend.Error.
type ProductStore interface {
	List(ctx context.Context, token string, q models.ProductQuery) ([]models.Product, error)
	Get(ctx context.Context, token string, productID id.ProductID) (*models.Product, error)
	Create(ctx context.Context, token string, in *models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, token string, productID id.ProductID, patch *models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, token string, productID id.ProductID) error
}

// CategoryStore persists categories with the same contract as ProductStore.
type CategoryStore interface {
	List(ctx context.Context, token string, q models.CategoryQuery) ([]models.Category, error)
	Get(ctx context.Context, token string, categoryID id.CategoryID) (*models.Category, error)
	Create(ctx context.Context, token string, in *models.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, token string, categoryID id.CategoryID, patch *models.CategoryPatch) (*models.Category, error)
	Delete(ctx context.Context, token string, categoryID id.CategoryID) error
}
