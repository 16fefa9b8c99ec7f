// Package auth authenticates bearer tokens issued by the hosted auth service
// and stores the resulting session in the request context.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/session"
	"storefront/pkg/requestcontext"
)

// TokenVerifier turns a bearer token into a session.
type TokenVerifier interface {
	SessionFromToken(token string) (*session.Session, error)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			sess, err := verifier.SessionFromToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSession(ctx, sess)))
		})
	}
}

// OptionalAuth attaches a session when a valid bearer token is present and
// otherwise lets the request through anonymously. Public storefront routes
// use it so that a signed-in admin browsing the shop sees the same data.
func OptionalAuth(verifier TokenVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			sess, err := verifier.SessionFromToken(token)
			if err != nil {
				logger.DebugContext(ctx, "ignoring invalid bearer token on public route",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithSession(ctx, sess)))
		})
	}
}
