package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront/internal/platform/metrics"
	ratelimitMW "storefront/internal/ratelimit/middleware"
	"storefront/internal/ratelimit/models"
	adminMW "storefront/pkg/platform/middleware/admin"
	authMW "storefront/pkg/platform/middleware/auth"
	"storefront/pkg/platform/middleware/device"
	"storefront/pkg/platform/middleware/metadata"
	"storefront/pkg/platform/middleware/request"
	"storefront/pkg/platform/middleware/requesttime"
	"storefront/pkg/platform/validation"
)

// Each feature handler mounts its endpoints once per access level.
type (
	healthRoutes interface{ Register(r chi.Router) }

	adminRoutes interface {
		RegisterLogin(r chi.Router)
		Register(r chi.Router)
		RegisterAuthenticated(r chi.Router)
		RegisterAdmin(r chi.Router)
	}

	catalogRoutes interface {
		Register(r chi.Router)
		RegisterAdmin(r chi.Router)
	}

	reviewRoutes interface {
		Register(r chi.Router)
		RegisterSubmit(r chi.Router)
		RegisterAdmin(r chi.Router)
	}

	mediaRoutes interface {
		RegisterUpload(r chi.Router)
		RegisterAdmin(r chi.Router)
	}

	contactRoutes interface{ Register(r chi.Router) }
)

// Dependencies collects everything the router mounts.
type Dependencies struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Verifier       authMW.TokenVerifier
	AdminChecker   adminMW.AdminChecker
	RateLimiter    *ratelimitMW.Middleware
	TrustedProxies []netip.Prefix
	RequestTimeout time.Duration
	Clock          func() time.Time

	Health  healthRoutes
	Admin   adminRoutes
	Catalog catalogRoutes
	Reviews reviewRoutes
	Media   mediaRoutes
	Contact contactRoutes
}

// NewRouter wires every endpoint with its middleware chain.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: deps.TrustedProxies}).Handler)
	r.Use(device.Device)
	r.Use(request.Logger(logger))
	if deps.Metrics != nil {
		r.Use(request.LatencyMiddleware(deps.Metrics))
	}
	r.Use(requesttime.Middleware(deps.Clock))

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	limit := func(class models.EndpointClass) func(http.Handler) http.Handler {
		if deps.RateLimiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return deps.RateLimiter.RateLimit(class)
	}
	requireAuth := authMW.RequireAuth(deps.Verifier, logger)
	requireAdmin := adminMW.RequireAdmin(deps.AdminChecker, logger)

	// JSON API
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(timeout))
		r.Use(request.ContentTypeJSON)
		r.Use(request.BodyLimit(validation.MaxBodySize))

		// Public storefront. A bearer token is optional and, when valid,
		// makes backend reads run as that user.
		r.Group(func(r chi.Router) {
			r.Use(authMW.OptionalAuth(deps.Verifier, logger))

			deps.Catalog.Register(r)
			deps.Reviews.Register(r)
			deps.Admin.Register(r)

			r.With(limit(models.ClassLogin)).Group(deps.Admin.RegisterLogin)

			r.Group(func(r chi.Router) {
				r.Use(limit(models.ClassPublicWrite))
				deps.Reviews.RegisterSubmit(r)
				deps.Contact.Register(r)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			deps.Admin.RegisterAuthenticated(r)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				deps.Admin.RegisterAdmin(r)
				deps.Catalog.RegisterAdmin(r)
				deps.Reviews.RegisterAdmin(r)
				deps.Media.RegisterAdmin(r)
			})
		})
	})

	// Multipart uploads bypass the JSON content type and body limit; the
	// media handler bounds the body itself.
	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(timeout))
		r.Use(requireAuth)
		r.Use(requireAdmin)
		deps.Media.RegisterUpload(r)
	})

	return r
}
