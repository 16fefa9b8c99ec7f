// Package service resolves whether a signed-in identity is an active store
// administrator and manages the lifetime of admin sessions.
package service

import (
	"log/slog"
	"time"

	"storefront/internal/platform/metrics"
	"storefront/internal/session"
)

// Service owns admin sign-in, session lifecycle and the dashboard summary.
// It keeps no per-user state: every call takes the caller's session
// explicitly.
type Service struct {
	auth       AuthProvider
	directory  Directory
	counter    Counter
	notifier   *session.Notifier
	strategies []strategy
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCounter enables Stats.
func WithCounter(c Counter) Option {
	return func(s *Service) {
		s.counter = c
	}
}

// WithNotifier shares a notifier with other components. By default the
// service creates its own.
func WithNotifier(n *session.Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(auth AuthProvider, directory Directory, opts ...Option) *Service {
	svc := &Service{
		auth:      auth,
		directory: directory,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.notifier == nil {
		svc.notifier = session.NewNotifier()
	}
	svc.strategies = svc.defaultStrategies()
	return svc
}
