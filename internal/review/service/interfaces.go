package service

import (
	"context"

	"storefront/internal/review/models"
	id "storefront/pkg/domain"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/review-mocks.go -package=mocks Store

// Store persists reviews.
// Error Contract: Update returns (nil, nil) when no row has the id; other
// failures are *backend.Error.
type Store interface {
	List(ctx context.Context, token string, q models.Query) ([]models.Review, error)
	Create(ctx context.Context, token string, row *models.NewReview) (*models.Review, error)
	Update(ctx context.Context, token string, reviewID id.ReviewID, patch *models.Patch) (*models.Review, error)
	Delete(ctx context.Context, token string, reviewID id.ReviewID) error
}
