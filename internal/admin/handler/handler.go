// Package handler exposes admin sign-in, session and dashboard endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"storefront/internal/admin/models"
	"storefront/internal/session"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

// Service defines the admin operations used by the HTTP layer.
type Service interface {
	SignIn(ctx context.Context, cred *models.Credential) (*models.Outcome, error)
	SignOut(ctx context.Context, sess *session.Session) error
	CurrentAdmin(ctx context.Context, sess *session.Session) (*models.AdminRecord, error)
	RefreshSession(ctx context.Context, sess *session.Session) (*session.Session, error)
	Stats(ctx context.Context, accessToken string) (*models.Stats, error)
}

type Handler struct {
	admin  Service
	logger *slog.Logger
}

func New(admin Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{admin: admin, logger: logger}
}

// RegisterLogin mounts POST /admin/login. Callers rate limit r.
func (h *Handler) RegisterLogin(r chi.Router) {
	r.Post("/admin/login", h.HandleLogin)
}

// Register mounts the session routes that work with or without a valid
// bearer token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/admin/logout", h.HandleLogout)
	r.Post("/admin/refresh", h.HandleRefresh)
}

// RegisterAuthenticated mounts routes that need a bearer token but decide
// admin status themselves.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Get("/admin/me", h.HandleMe)
}

// RegisterAdmin mounts routes behind the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/stats", h.HandleStats)
}

// rejection maps a non-authorized outcome kind to its HTTP status and error
// code. First match wins.
var rejections = []struct {
	kind   models.Kind
	status int
	code   string
}{
	{models.KindAuthenticationFailure, http.StatusUnauthorized, "invalid_credentials"},
	{models.KindAuthorizationDenied, http.StatusForbidden, "not_admin"},
	{models.KindIdentityMismatch, http.StatusServiceUnavailable, "identity_mismatch"},
	{models.KindBackendPolicyError, http.StatusServiceUnavailable, "backend_policy_error"},
}

func rejectionFor(kind models.Kind) (int, string) {
	for _, r := range rejections {
		if r.kind == kind {
			return r.status, r.code
		}
	}
	return http.StatusForbidden, "access_denied"
}

// HandleLogin implements POST /admin/login.
//
// Input: { "email": "owner@shop.test", "password": "..." }
// Output: { "session": {...}, "admin": {...}, "strategy": "privileged_function" }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	outcome, err := h.admin.SignIn(ctx, req.Credential())
	if err != nil {
		h.logger.ErrorContext(ctx, "admin sign-in failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	if outcome.Authorized() {
		httputil.WriteJSON(w, http.StatusOK, &models.LoginResponse{
			Session:  outcome.Session,
			Admin:    outcome.Record,
			Strategy: outcome.Strategy,
		})
		return
	}

	status, code := rejectionFor(outcome.Kind)
	httputil.WriteJSON(w, status, &models.RejectionResponse{
		Error:       code,
		Description: outcome.Reason,
		Remediation: outcome.Kind.Remediation(),
	})
}

// HandleLogout implements POST /admin/logout. A missing, expired or already
// revoked session answers 204; a backend failure while revoking a live
// session answers 502 so the client keeps treating the token as valid.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.admin.SignOut(ctx, requestcontext.Session(ctx)); err != nil {
		h.logger.ErrorContext(ctx, "admin sign-out failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe implements GET /admin/me.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.admin.CurrentAdmin(r.Context(), sess)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if record == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "not an active admin"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// HandleRefresh implements POST /admin/refresh.
//
// Input: { "refresh_token": "..." }
// Output: the new session.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RefreshRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	refreshed, err := h.admin.RefreshSession(ctx, &session.Session{RefreshToken: req.RefreshToken})
	if err != nil {
		h.logger.WarnContext(ctx, "session refresh failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, refreshed)
}

// HandleStats implements GET /admin/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := httputil.RequireSession(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stats, err := h.admin.Stats(ctx, sess.AccessToken)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get stats",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}
