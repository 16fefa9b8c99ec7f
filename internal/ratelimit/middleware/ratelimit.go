// Package middleware applies per-client-IP rate limits to chi routes.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/platform/privacy"
	"storefront/internal/ratelimit/models"
	"storefront/pkg/platform/httputil"
	"storefront/pkg/requestcontext"
)

type RateLimiter interface {
	Allow(class models.EndpointClass, key string, policy models.Policy, now time.Time) *models.RateLimitResult
}

// Recorder counts rejected requests; *metrics.Metrics satisfies it.
type Recorder interface {
	IncrementRateLimited(limiter string)
}

type Middleware struct {
	limiter  RateLimiter
	policies map[models.EndpointClass]models.Policy
	logger   *slog.Logger
	metrics  Recorder
	now      func() time.Time
}

type Option func(*Middleware)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(r Recorder) Option {
	return func(m *Middleware) {
		m.metrics = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Middleware) {
		if now != nil {
			m.now = now
		}
	}
}

func New(limiter RateLimiter, policies map[models.EndpointClass]models.Policy, opts ...Option) *Middleware {
	m := &Middleware{
		limiter:  limiter,
		policies: policies,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RateLimit limits requests of class per client IP. A class without a
// policy is not limited.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		policy, ok := m.policies[class]
		if !ok {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = "unknown"
			}

			result := m.limiter.Allow(class, ip, policy, m.now())
			addRateLimitHeaders(w, result)

			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"class", class.String(),
					"ip_prefix", privacy.AnonymizeIP(ip),
					"retry_after", result.RetryAfter,
					"request_id", requestcontext.RequestID(ctx),
				)
				if m.metrics != nil {
					m.metrics.IncrementRateLimited(class.String())
				}
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limited",
		Message:    "Too many requests from this IP address. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
