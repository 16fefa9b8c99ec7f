// Package service implements product reviews: public submission into a
// moderation queue and admin moderation.
package service

import (
	"context"
	"log/slog"

	"storefront/internal/backend"
	"storefront/internal/platform/metrics"
	"storefront/internal/review/models"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/middleware/requesttime"
	"storefront/pkg/platform/sanitize"
	"storefront/pkg/requestcontext"
)

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

func WithSanitizer(sanitizer *sanitize.Sanitizer) Option {
	return func(s *Service) {
		s.sanitizer = sanitizer
	}
}

func New(store Store, opts ...Option) *Service {
	svc := &Service{store: store}
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

// ForProduct returns the product's approved reviews, newest first.
func (s *Service) ForProduct(ctx context.Context, token string, productID id.ProductID) ([]models.Review, error) {
	rows, err := s.store.List(ctx, token, models.Query{ProductID: productID, ApprovedOnly: true})
	if err != nil {
		return nil, backend.ToDomain(err, "failed to load reviews")
	}
	return rows, nil
}

// ModerationQueue returns every review, approved or not, newest first.
func (s *Service) ModerationQueue(ctx context.Context, token string) ([]models.Review, error) {
	rows, err := s.store.List(ctx, token, models.Query{})
	if err != nil {
		return nil, backend.ToDomain(err, "failed to load reviews")
	}
	return rows, nil
}

// Submit stores a visitor's review unapproved. Markup is stripped from the
// name and comment; a name that was nothing but markup is rejected.
func (s *Service) Submit(ctx context.Context, token string, productID id.ProductID, req *models.SubmitRequest) (*models.Review, error) {
	if productID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "product id is required")
	}
	name := s.sanitizer.Text(req.CustomerName)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "customer_name must not be blank")
	}

	review, err := s.store.Create(ctx, token, &models.NewReview{
		ProductID:     productID,
		CustomerName:  name,
		CustomerEmail: req.CustomerEmail,
		Rating:        req.Rating,
		Comment:       s.sanitizer.Text(req.Comment),
		IsApproved:    false,
		CreatedAt:     requesttime.Now(ctx),
	})
	if err != nil {
		return nil, backend.ToDomain(err, "failed to submit review")
	}

	if s.metrics != nil {
		s.metrics.IncrementReviewsSubmitted()
	}
	s.logger.InfoContext(ctx, "review submitted",
		"product_id", productID.String(),
		"review_id", review.ID.String(),
		"rating", review.Rating,
		"request_id", requestcontext.RequestID(ctx),
	)
	return review, nil
}

// Update applies an admin edit.
func (s *Service) Update(ctx context.Context, token string, reviewID id.ReviewID, patch *models.Patch) (*models.Review, error) {
	if patch.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if patch.Comment != nil {
		comment := s.sanitizer.Text(*patch.Comment)
		patch.Comment = &comment
	}
	if patch.CustomerName != nil {
		name := s.sanitizer.Text(*patch.CustomerName)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "customer_name must not be blank")
		}
		patch.CustomerName = &name
	}

	review, err := s.store.Update(ctx, token, reviewID, patch)
	if err != nil {
		return nil, backend.ToDomain(err, "failed to update review")
	}
	if review == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "review not found")
	}
	s.logger.InfoContext(ctx, "review updated",
		"review_id", reviewID.String(),
		"approved", review.IsApproved,
		"request_id", requestcontext.RequestID(ctx),
	)
	return review, nil
}

// Approve publishes a review on the storefront.
func (s *Service) Approve(ctx context.Context, token string, reviewID id.ReviewID) (*models.Review, error) {
	approved := true
	return s.Update(ctx, token, reviewID, &models.Patch{IsApproved: &approved})
}

func (s *Service) Delete(ctx context.Context, token string, reviewID id.ReviewID) error {
	if err := s.store.Delete(ctx, token, reviewID); err != nil {
		return backend.ToDomain(err, "failed to delete review")
	}
	s.logger.InfoContext(ctx, "review deleted",
		"review_id", reviewID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
