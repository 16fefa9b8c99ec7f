// Package handler exposes the storefront contact form.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/contact/models"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

type Service interface {
	Submit(ctx context.Context, token string, req *models.SubmitRequest) (*models.Message, error)
}

type Handler struct {
	contact Service
	logger  *slog.Logger
}

func New(contact Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{contact: contact, logger: logger}
}

// Register mounts POST /contact. Callers rate limit r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/contact", h.HandleSubmit)
}

// HandleSubmit implements POST /contact.
//
// Input: { "name": "Ann", "email": "ann@example.com", "subject": "Order", "message": "Hello" }
// Output: 201 { "id": "...", "received": true }
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	msg, err := h.contact.Submit(ctx, requestcontext.Session(ctx).Bearer(), req)
	if err != nil {
		h.logger.ErrorContext(ctx, "contact submission failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &models.SubmitResponse{ID: msg.ID, Received: true})
}
