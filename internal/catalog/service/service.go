// Package service implements the product catalog: public browsing and the
// admin console's product and category management.
package service

import (
	"context"
	"log/slog"
	"strings"

	"storefront/internal/backend"
	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/sanitize"
	"storefront/pkg/platform/validation"
	"storefront/pkg/requestcontext"
)

// Service reads and writes the catalog. Every method takes the caller's
// access token; "" queries as an anonymous visitor.
type Service struct {
	products   ProductStore
	categories CategoryStore
	sanitizer  *sanitize.Sanitizer
	logger     *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSanitizer(sanitizer *sanitize.Sanitizer) Option {
	return func(s *Service) {
		s.sanitizer = sanitizer
	}
}

func New(products ProductStore, categories CategoryStore, opts ...Option) *Service {
	svc := &Service{products: products, categories: categories}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.sanitizer == nil {
		svc.sanitizer = sanitize.New()
	}
	return svc
}

// ListProducts returns every product, newest first.
func (s *Service) ListProducts(ctx context.Context, token string) ([]models.Product, error) {
	return s.queryProducts(ctx, token, models.ProductQuery{})
}

func (s *Service) FeaturedProducts(ctx context.Context, token string) ([]models.Product, error) {
	return s.queryProducts(ctx, token, models.ProductQuery{FeaturedOnly: true})
}

func (s *Service) ProductsByCategory(ctx context.Context, token, category string) ([]models.Product, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "category is required")
	}
	return s.queryProducts(ctx, token, models.ProductQuery{Category: category})
}

// SearchProducts matches the query against product names and descriptions.
// A blank query lists every product.
func (s *Service) SearchProducts(ctx context.Context, token, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if err := validation.CheckStringLength("search query", query, validation.MaxSearchQueryLength); err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, token, models.ProductQuery{Search: query})
}

// BrowseProducts applies whichever of category, search and featured the
// caller set.
func (s *Service) BrowseProducts(ctx context.Context, token string, q models.ProductQuery) ([]models.Product, error) {
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	if err := validation.CheckStringLength("search query", q.Search, validation.MaxSearchQueryLength); err != nil {
		return nil, err
	}
	return s.queryProducts(ctx, token, q)
}

func (s *Service) queryProducts(ctx context.Context, token string, q models.ProductQuery) ([]models.Product, error) {
	rows, err := s.products.List(ctx, token, q)
	if err != nil {
		return nil, s.listError(ctx, err, "products", "failed to list products")
	}
	return rows, nil
}

// GetProduct returns nil without error when the product does not exist.
func (s *Service) GetProduct(ctx context.Context, token string, productID id.ProductID) (*models.Product, error) {
	product, err := s.products.Get(ctx, token, productID)
	if err != nil {
		return nil, backend.ToDomain(err, "failed to load product")
	}
	return product, nil
}

// CreateProduct stores in. The description keeps basic formatting only.
func (s *Service) CreateProduct(ctx context.Context, token string, in *models.ProductInput) (*models.Product, error) {
	in.Description = s.sanitizer.RichText(in.Description)
	product, err := s.products.Create(ctx, token, in)
	if err != nil {
		return nil, backend.ToDomain(err, "failed to create product")
	}
	s.logger.InfoContext(ctx, "product created", requestAttrs(ctx, "product_id", product.ID.String())...)
	return product, nil
}

// UpdateProduct applies patch. A patch that moves either price is checked
// against the stored row so the original price never ends up below the
// selling price.
func (s *Service) UpdateProduct(ctx context.Context, token string, productID id.ProductID, patch *models.ProductPatch) (*models.Product, error) {
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if patch.Description != nil {
		description := s.sanitizer.RichText(*patch.Description)
		patch.Description = &description
	}
	if patch.TouchesPricing() {
		current, err := s.GetProduct(ctx, token, productID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
		}
		if err := checkPricing(current, patch); err != nil {
			return nil, err
		}
	}

	product, err := s.products.Update(ctx, token, productID, patch)
	if err != nil {
		return nil, backend.ToDomain(err, "failed to update product")
	}
	if product == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "product not found")
	}
	s.logger.InfoContext(ctx, "product updated", requestAttrs(ctx, "product_id", productID.String())...)
	return product, nil
}

func (s *Service) DeleteProduct(ctx context.Context, token string, productID id.ProductID) error {
	if err := s.products.Delete(ctx, token, productID); err != nil {
		return backend.ToDomain(err, "failed to delete product")
	}
	s.logger.InfoContext(ctx, "product deleted", requestAttrs(ctx, "product_id", productID.String())...)
	return nil
}

func checkPricing(current *models.Product, patch *models.ProductPatch) error {
	price := current.Price
	if patch.Price != nil {
		price = *patch.Price
	}
	original := current.OriginalPrice
	if patch.OriginalPrice != nil {
		original = patch.OriginalPrice
	}
	if original != nil && *original < price {
		return dErrors.New(dErrors.CodeValidation, "original_price must not be less than price")
	}
	return nil
}

// ListCategories returns every category in display order.
func (s *Service) ListCategories(ctx context.Context, token string) ([]models.Category, error) {
	return s.queryCategories(ctx, token, models.CategoryQuery{})
}

// ActiveCategories returns the categories shown on the storefront.
func (s *Service) ActiveCategories(ctx context.Context, token string) ([]models.Category, error) {
	return s.queryCategories(ctx, token, models.CategoryQuery{ActiveOnly: true})
}

func (s *Service) queryCategories(ctx context.Context, token string, q models.CategoryQuery) ([]models.Category, error) {
	rows, err := s.categories.List(ctx, token, q)
	if err != nil {
		return nil, s.listError(ctx, err, "categories", "failed to list categories")
	}
	return rows, nil
}

func (s *Service) GetCategory(ctx context.Context, token string, categoryID id.CategoryID) (*models.Category, error) {
	category, err := s.categories.Get(ctx, token, categoryID)
	if err != nil {
		return nil, backend.ToDomain(err, "failed to load category")
	}
	return category, nil
}

func (s *Service) CreateCategory(ctx context.Context, token string, in *models.CategoryInput) (*models.Category, error) {
	category, err := s.categories.Create(ctx, token, in)
	if err != nil {
		if backend.CategoryOf(err) == backend.CategoryConflict {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "a category with this slug already exists")
		}
		return nil, backend.ToDomain(err, "failed to create category")
	}
	s.logger.InfoContext(ctx, "category created", requestAttrs(ctx, "category_id", category.ID.String(), "slug", category.Slug)...)
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, token string, categoryID id.CategoryID, patch *models.CategoryPatch) (*models.Category, error) {
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	category, err := s.categories.Update(ctx, token, categoryID, patch)
	if err != nil {
		if backend.CategoryOf(err) == backend.CategoryConflict {
			return nil, dErrors.Wrap(err, dErrors.CodeConflict, "a category with this slug already exists")
		}
		return nil, backend.ToDomain(err, "failed to update category")
	}
	if category == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "category not found")
	}
	s.logger.InfoContext(ctx, "category updated", requestAttrs(ctx, "category_id", categoryID.String())...)
	return category, nil
}

func (s *Service) DeleteCategory(ctx context.Context, token string, categoryID id.CategoryID) error {
	if err := s.categories.Delete(ctx, token, categoryID); err != nil {
		return backend.ToDomain(err, "failed to delete category")
	}
	s.logger.InfoContext(ctx, "category deleted", requestAttrs(ctx, "category_id", categoryID.String())...)
	return nil
}

// listError treats any not-found on a collection read as a missing table:
// listing an existing table never reports "not found".
func (s *Service) listError(ctx context.Context, err error, table, msg string) error {
	if backend.IsNotFound(err) {
		s.logger.ErrorContext(ctx, "catalog table missing", requestAttrs(ctx, "table", table, "error", err)...)
		return dErrors.Wrap(err, dErrors.CodeTableNotFound, backend.MsgTableNotFound)
	}
	return backend.ToDomain(err, msg)
}

func requestAttrs(ctx context.Context, attrs ...any) []any {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	return attrs
}
