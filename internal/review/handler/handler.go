// Package handler exposes product reviews to visitors and the moderation
// queue to admins.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/review/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/review-mocks.go -package=mocks Service

// Service defines the review operations used by the HTTP layer.
type Service interface {
	ForProduct(ctx context.Context, token string, productID id.ProductID) ([]models.Review, error)
	ModerationQueue(ctx context.Context, token string) ([]models.Review, error)
	Submit(ctx context.Context, token string, productID id.ProductID, req *models.SubmitRequest) (*models.Review, error)
	Update(ctx context.Context, token string, reviewID id.ReviewID, patch *models.Patch) (*models.Review, error)
	Approve(ctx context.Context, token string, reviewID id.ReviewID) (*models.Review, error)
	Delete(ctx context.Context, token string, reviewID id.ReviewID) error
}

type Handler struct {
	reviews Service
	logger  *slog.Logger
}

func New(reviews Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{reviews: reviews, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/products/{id}/reviews", h.HandleForProduct)
}

// RegisterSubmit mounts the visitor write route. Callers rate limit r.
func (h *Handler) RegisterSubmit(r chi.Router) {
	r.Post("/products/{id}/reviews", h.HandleSubmit)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/reviews", h.HandleModerationQueue)
	r.Patch("/admin/reviews/{id}", h.HandleUpdate)
	r.Post("/admin/reviews/{id}/approve", h.HandleApprove)
	r.Delete("/admin/reviews/{id}", h.HandleDelete)
}

func (h *Handler) HandleForProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}

	reviews, err := h.reviews.ForProduct(ctx, requestcontext.Session(ctx).Bearer(), productID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list reviews failed",
			"error", err,
			"product_id", productID.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}

// HandleSubmit implements POST /products/{id}/reviews.
//
// Input: { "customer_name": "Ann", "rating": 5, "comment": "Bright and warm" }
// Output: 201 with the stored review, unapproved until moderated.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	productID, err := id.ParseProductID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid product id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	review, err := h.reviews.Submit(ctx, requestcontext.Session(ctx).Bearer(), productID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "submit review failed",
			"error", err,
			"product_id", productID.String(),
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

func (h *Handler) HandleModerationQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reviews, err := h.reviews.ModerationQueue(ctx, sess.AccessToken)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, reviewID, ok := h.adminTarget(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.Patch](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	review, err := h.reviews.Update(ctx, sess, reviewID, req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	sess, reviewID, ok := h.adminTarget(w, r)
	if !ok {
		return
	}
	review, err := h.reviews.Approve(r.Context(), sess, reviewID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sess, reviewID, ok := h.adminTarget(w, r)
	if !ok {
		return
	}
	if err := h.reviews.Delete(r.Context(), sess, reviewID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adminTarget resolves the admin's token and the review id from the path.
func (h *Handler) adminTarget(w http.ResponseWriter, r *http.Request) (string, id.ReviewID, bool) {
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return "", id.ReviewID{}, false
	}
	reviewID, err := id.ParseReviewID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid review id"))
		return "", id.ReviewID{}, false
	}
	return sess.AccessToken, reviewID, true
}
