// Package handler exposes the catalog to storefront visitors and to the
// admin console.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"storefront/internal/catalog/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/catalog-mocks.go -package=mocks Service

// Service defines the catalog operations used by the HTTP layer.
type Service interface {
	BrowseProducts(ctx context.Context, token string, q models.ProductQuery) ([]models.Product, error)
	FeaturedProducts(ctx context.Context, token string) ([]models.Product, error)
	GetProduct(ctx context.Context, token string, productID id.ProductID) (*models.Product, error)
	CreateProduct(ctx context.Context, token string, in *models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, token string, productID id.ProductID, patch *models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, token string, productID id.ProductID) error

	ListCategories(ctx context.Context, token string) ([]models.Category, error)
	ActiveCategories(ctx context.Context, token string) ([]models.Category, error)
	GetCategory(ctx context.Context, token string, categoryID id.CategoryID) (*models.Category, error)
	CreateCategory(ctx context.Context, token string, in *models.CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, token string, categoryID id.CategoryID, patch *models.CategoryPatch) (*models.Category, error)
	DeleteCategory(ctx context.Context, token string, categoryID id.CategoryID) error
}

type Handler struct {
	catalog Service
	logger  *slog.Logger
}

func New(catalog Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// Register mounts the public catalog routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/products", h.HandleListProducts)
	r.Get("/products/featured", h.HandleFeaturedProducts)
	r.Get("/products/{id}", h.HandleGetProduct)
	r.Get("/categories", h.HandleActiveCategories)
}

// RegisterAdmin mounts catalog management routes. The caller must already
// have gated r on an authenticated admin.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/products", h.HandleCreateProduct)
	r.Patch("/admin/products/{id}", h.HandleUpdateProduct)
	r.Delete("/admin/products/{id}", h.HandleDeleteProduct)
	r.Get("/admin/categories", h.HandleListCategories)
	r.Get("/admin/categories/{id}", h.HandleGetCategory)
	r.Post("/admin/categories", h.HandleCreateCategory)
	r.Patch("/admin/categories/{id}", h.HandleUpdateCategory)
	r.Delete("/admin/categories/{id}", h.HandleDeleteCategory)
}

// HandleListProducts implements GET /products?category=&q=&featured=.
func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()
	featured, _ := strconv.ParseBool(query.Get("featured"))

	products, err := h.catalog.BrowseProducts(ctx, bearer(ctx), models.ProductQuery{
		Category:     query.Get("category"),
		Search:       query.Get("q"),
		FeaturedOnly: featured,
	})
	if err != nil {
		h.fail(ctx, w, "list products failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	products, err := h.catalog.FeaturedProducts(ctx, bearer(ctx))
	if err != nil {
		h.fail(ctx, w, "list featured products failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}

	product, err := h.catalog.GetProduct(ctx, bearer(ctx), productID)
	if err != nil {
		h.fail(ctx, w, "get product failed", err, "product_id", productID.String())
		return
	}
	if product == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "product not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleActiveCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	categories, err := h.catalog.ActiveCategories(ctx, bearer(ctx))
	if err != nil {
		h.fail(ctx, w, "list categories failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

// HandleCreateProduct implements POST /admin/products.
//
// Input: { "name": "Desk lamp", "category": "home", "price": 49.9, "stock_quantity": 3 }
// Output: the created product.
func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ProductInput](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	product, err := h.catalog.CreateProduct(ctx, sess.AccessToken, req)
	if err != nil {
		h.fail(ctx, w, "create product failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, product)
}

func (h *Handler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.ProductPatch](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, sess.AccessToken, productID, req)
	if err != nil {
		h.fail(ctx, w, "update product failed", err, "product_id", productID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}

	if err := h.catalog.DeleteProduct(ctx, sess.AccessToken, productID); err != nil {
		h.fail(ctx, w, "delete product failed", err, "product_id", productID.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListCategories implements GET /admin/categories, inactive ones
// included.
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	categories, err := h.catalog.ListCategories(ctx, sess.AccessToken)
	if err != nil {
		h.fail(ctx, w, "list categories failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	categoryID, err := id.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid category id"))
		return
	}

	category, err := h.catalog.GetCategory(ctx, sess.AccessToken, categoryID)
	if err != nil {
		h.fail(ctx, w, "get category failed", err, "category_id", categoryID.String())
		return
	}
	if category == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "category not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, category)
}

// HandleCreateCategory implements POST /admin/categories.
//
// Input: { "name": "Home Audio", "slug": "", "display_order": 2 }
// Output: the created category with slug "home-audio".
func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CategoryInput](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	category, err := h.catalog.CreateCategory(ctx, sess.AccessToken, req)
	if err != nil {
		h.fail(ctx, w, "create category failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, category)
}

func (h *Handler) HandleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	categoryID, err := id.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid category id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.CategoryPatch](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	category, err := h.catalog.UpdateCategory(ctx, sess.AccessToken, categoryID, req)
	if err != nil {
		h.fail(ctx, w, "update category failed", err, "category_id", categoryID.String())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, category)
}

func (h *Handler) HandleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	categoryID, err := id.ParseCategoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid category id"))
		return
	}

	if err := h.catalog.DeleteCategory(ctx, sess.AccessToken, categoryID); err != nil {
		h.fail(ctx, w, "delete category failed", err, "category_id", categoryID.String())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	args := append([]any{"error", err, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	h.logger.ErrorContext(ctx, msg, args...)
	httputil.WriteError(w, err)
}

// bearer is the visitor's access token, or "" to read anonymously.
func bearer(ctx context.Context) string {
	return requestcontext.Session(ctx).Bearer()
}
