// Package store persists reviews in the hosted backend's reviews table.
package store

import (
	"context"

	"storefront/internal/backend"
	"storefront/internal/review/models"
	id "storefront/pkg/domain"
)

const reviewsTable = "reviews"

type ReviewStore struct {
	t backend.Table[models.Review]
}

func New(client backend.TableClient) *ReviewStore {
	return &ReviewStore{t: backend.NewTable[models.Review](client, reviewsTable)}
}

// List returns reviews matching q, newest first. A zero ProductID lists
// every product's reviews for moderation.
func (s *ReviewStore) List(ctx context.Context, token string, q models.Query) ([]models.Review, error) {
	f := backend.NewFilter().Order("created_at", false)
	if !q.ProductID.IsNil() {
		f.Eq("product_id", q.ProductID)
	}
	if q.ApprovedOnly {
		f.Eq("is_approved", true)
	}
	return s.t.List(ctx, token, f)
}

func (s *ReviewStore) Create(ctx context.Context, token string, row *models.NewReview) (*models.Review, error) {
	return s.t.Insert(ctx, token, row)
}

func (s *ReviewStore) Update(ctx context.Context, token string, reviewID id.ReviewID, patch *models.Patch) (*models.Review, error) {
	return s.t.Update(ctx, token, reviewID, patch)
}

func (s *ReviewStore) Delete(ctx context.Context, token string, reviewID id.ReviewID) error {
	return s.t.Delete(ctx, token, reviewID)
}
