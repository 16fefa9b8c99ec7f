// Package requestcontext carries per-request values (request ID, client
// metadata, the caller's backend session) through context.Context so that
// middleware, handlers and services agree on a single set of keys.
package requestcontext

import (
	"context"

	"storefront/internal/session"
)

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	userAgentKey struct{}
	deviceKey    struct{}
	sessionKey   struct{}
)

// WithRequestID stores the request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the resolved client IP and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// ClientIP returns the client IP resolved by the metadata middleware.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// UserAgent returns the raw User-Agent header.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

// WithDeviceLabel stores the human-readable device name ("Chrome on macOS").
func WithDeviceLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, deviceKey{}, label)
}

// DeviceLabel returns the device name derived from the User-Agent, or "".
func DeviceLabel(ctx context.Context) string {
	if v, ok := ctx.Value(deviceKey{}).(string); ok {
		return v
	}
	return ""
}

// WithSession stores the caller's backend session, established by the bearer
// authentication middleware.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// Session returns the caller's backend session, or nil for anonymous requests.
func Session(ctx context.Context) *session.Session {
	if v, ok := ctx.Value(sessionKey{}).(*session.Session); ok {
		return v
	}
	return nil
}
