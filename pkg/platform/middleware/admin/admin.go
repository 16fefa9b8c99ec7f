// Package admin gates routes on the caller being an active store
// administrator. It runs after auth.RequireAuth, which places the session in
// the request context.
package admin

import (
	"context"
	"log/slog"
	"net/http"

	"storefront/internal/session"
	"storefront/pkg/requestcontext"
)

type contextKeyAdminActorID struct{}

// AdminChecker reports whether a session belongs to an active admin.
type AdminChecker interface {
	IsAdmin(ctx context.Context, sess *session.Session) (bool, error)
}

// GetAdminActorID returns the user ID of the admin performing the request,
// or "" outside admin routes. Write handlers attach it to audit logs.
func GetAdminActorID(ctx context.Context) string {
	if actorID, ok := ctx.Value(contextKeyAdminActorID{}).(string); ok {
		return actorID
	}
	return ""
}

func RequireAdmin(checker AdminChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := requestcontext.Session(ctx)
			if sess == nil {
				writeError(w, http.StatusUnauthorized, `{"error":"unauthorized","error_description":"sign in required"}`)
				return
			}

			ok, err := checker.IsAdmin(ctx, sess)
			if err != nil {
				logger.ErrorContext(ctx, "admin check failed",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeError(w, http.StatusBadGateway, `{"error":"bad_gateway","error_description":"could not verify admin status"}`)
				return
			}
			if !ok {
				logger.WarnContext(ctx, "non-admin access to admin route",
					"user_id", sess.Identity.ID.String(),
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeError(w, http.StatusForbidden, `{"error":"forbidden","error_description":"admin access required"}`)
				return
			}

			ctx = context.WithValue(ctx, contextKeyAdminActorID{}, sess.Identity.ID.String())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
