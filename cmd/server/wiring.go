package main

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"

	adminAdapters "storefront/internal/admin/adapters"
	adminHandler "storefront/internal/admin/handler"
	adminService "storefront/internal/admin/service"
	"storefront/internal/backend"
	catalogHandler "storefront/internal/catalog/handler"
	catalogService "storefront/internal/catalog/service"
	catalogStore "storefront/internal/catalog/store"
	contactHandler "storefront/internal/contact/handler"
	contactService "storefront/internal/contact/service"
	jwttoken "storefront/internal/jwt_token"
	mediaHandler "storefront/internal/media/handler"
	mediaService "storefront/internal/media/service"
	"storefront/internal/platform/config"
	"storefront/internal/platform/health"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/privacy"
	"storefront/internal/platform/tracer"
	ratelimitMW "storefront/internal/ratelimit/middleware"
	"storefront/internal/ratelimit/models"
	"storefront/internal/ratelimit/store/bucket"
	"storefront/internal/ratelimit/workers/cleanup"
	reviewHandler "storefront/internal/review/handler"
	reviewService "storefront/internal/review/service"
	reviewStore "storefront/internal/review/store"
	"storefront/internal/session"
	httptransport "storefront/internal/transport/http"
	"storefront/pkg/platform/sanitize"
)

type application struct {
	router      http.Handler
	cleanup     *cleanup.BucketCleanupService
	unsubscribe func()
}

// build is the composition root: one backend client shared by every store,
// one sanitizer shared by every writer.
func build(cfg config.Server, log *slog.Logger, m *metrics.Metrics, reg *prometheus.Registry, proxies []netip.Prefix) *application {
	client := backend.New(cfg.Backend.URL, cfg.Backend.AnonKey,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithTracer(tracer.NewOTel()),
		backend.WithMetrics(m),
		backend.WithLogger(log),
	)
	verifier := jwttoken.NewJWTService(cfg.Backend.JWTSecret, "")
	sanitizer := sanitize.New()

	notifier := session.NewNotifier()
	unsubscribe := notifier.Subscribe(func(ev session.Event) {
		log.Info("admin session event",
			"event", string(ev.Type),
			"email_hash", privacy.PseudonymizeEmail(ev.Identity.Email),
		)
	})

	admin := adminService.New(client, adminAdapters.NewBackendDirectory(client),
		adminService.WithLogger(log),
		adminService.WithMetrics(m),
		adminService.WithCounter(client),
		adminService.WithNotifier(notifier),
	)
	catalog := catalogService.New(
		catalogStore.NewProductStore(client),
		catalogStore.NewCategoryStore(client),
		catalogService.WithLogger(log),
		catalogService.WithSanitizer(sanitizer),
	)
	reviews := reviewService.New(reviewStore.New(client),
		reviewService.WithLogger(log),
		reviewService.WithMetrics(m),
		reviewService.WithSanitizer(sanitizer),
	)
	media := mediaService.New(client, cfg.Storage.ProductImageBucket,
		mediaService.WithLogger(log),
		mediaService.WithMetrics(m),
		mediaService.WithMaxBytes(cfg.Storage.MaxUploadBytes),
	)
	contact := contactService.New(contactService.NewBackendStore(client), sanitizer,
		contactService.WithLogger(log),
		contactService.WithMetrics(m),
	)

	buckets := bucket.NewInMemoryBucketStore()
	limiter := ratelimitMW.New(buckets, map[models.EndpointClass]models.Policy{
		models.ClassLogin:       models.PerMinute(cfg.RateLimit.LoginPerMinute),
		models.ClassPublicWrite: models.PerMinute(cfg.RateLimit.PublicWritePerMinute),
	}, ratelimitMW.WithLogger(log), ratelimitMW.WithMetrics(m))

	hc := health.New(cfg.Environment)
	hc.RegisterCheck("backend", client.Health)

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		Verifier:       verifier,
		AdminChecker:   admin,
		RateLimiter:    limiter,
		TrustedProxies: proxies,
		RequestTimeout: cfg.RequestTimeout,
		Health:         hc,
		Admin:          adminHandler.New(admin, log),
		Catalog:        catalogHandler.New(catalog, log),
		Reviews:        reviewHandler.New(reviews, log),
		Media:          mediaHandler.New(media, log),
		Contact:        contactHandler.New(contact, log),
	})

	return &application{
		router:      router,
		cleanup:     cleanup.New(buckets, cleanup.WithLogger(log)),
		unsubscribe: unsubscribe,
	}
}
