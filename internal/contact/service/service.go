// Package service stores contact-form messages for the shop owner.
package service

import (
	"context"
	"log/slog"

	"storefront/internal/backend"
	"storefront/internal/contact/models"
	"storefront/internal/platform/metrics"
	"storefront/internal/platform/privacy"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/middleware/requesttime"
	"storefront/pkg/platform/sanitize"
	"storefront/pkg/requestcontext"
)

//go:generate mockgen -source=service.go -destination=mocks/contact-mocks.go -package=mocks Store

// Store inserts contact messages.
type Store interface {
	Create(ctx context.Context, token string, row *models.NewMessage) (*models.Message, error)
}

type Service struct {
	store     Store
	sanitizer *sanitize.Sanitizer
	logger    *slog.Logger
	metrics   *metrics.Metrics
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

func New(store Store, sanitizer *sanitize.Sanitizer, opts ...Option) *Service {
	svc := &Service{store: store, sanitizer: sanitizer}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.sanitizer == nil {
		svc.sanitizer = sanitize.New()
	}
	return svc
}

// Submit sanitizes and stores a message as unread.
func (s *Service) Submit(ctx context.Context, token string, req *models.SubmitRequest) (*models.Message, error) {
	row := &models.NewMessage{
		Name:      s.sanitizer.Text(req.Name),
		Email:     req.Email,
		Subject:   s.sanitizer.Text(req.Subject),
		Message:   s.sanitizer.Text(req.Message),
		IsRead:    false,
		CreatedAt: requesttime.Now(ctx),
	}
	if row.Name == "" || row.Message == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "name and message must contain text")
	}

	msg, err := s.store.Create(ctx, token, row)
	if err != nil {
		return nil, backend.ToDomain(err, "failed to send message")
	}

	if s.metrics != nil {
		s.metrics.IncrementContactMessages()
	}
	s.logger.InfoContext(ctx, "contact message stored",
		"message_id", msg.ID.String(),
		"email_hash", privacy.PseudonymizeEmail(req.Email),
		"request_id", requestcontext.RequestID(ctx),
	)
	return msg, nil
}
