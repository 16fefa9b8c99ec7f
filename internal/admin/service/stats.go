package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	dErrors "storefront/pkg/domain-errors"
)

// Table names the dashboard counts.
const (
	tableProducts   = "products"
	tableCategories = "categories"
	tableReviews    = "reviews"
	tableMessages   = "contact_messages"
)

type statCount struct {
	table  string
	filter func() *backend.Filter
	dest   func(*models.Stats) *int
}

var statCounts = []statCount{
	{tableProducts, backend.NewFilter, func(st *models.Stats) *int { return &st.TotalProducts }},
	{tableProducts, func() *backend.Filter { return backend.NewFilter().Eq("featured", true) }, func(st *models.Stats) *int { return &st.FeaturedProducts }},
	{tableProducts, func() *backend.Filter { return backend.NewFilter().Lte("stock_quantity", 0) }, func(st *models.Stats) *int { return &st.OutOfStock }},
	{tableCategories, backend.NewFilter, func(st *models.Stats) *int { return &st.TotalCategories }},
	{tableCategories, func() *backend.Filter { return backend.NewFilter().Eq("is_active", true) }, func(st *models.Stats) *int { return &st.ActiveCategories }},
	{tableReviews, func() *backend.Filter { return backend.NewFilter().Eq("is_approved", false) }, func(st *models.Stats) *int { return &st.PendingReviews }},
	{tableMessages, func() *backend.Filter { return backend.NewFilter().Eq("is_read", false) }, func(st *models.Stats) *int { return &st.UnreadMessages }},
}

// Stats gathers the dashboard counts concurrently with the admin's token.
func (s *Service) Stats(ctx context.Context, accessToken string) (*models.Stats, error) {
	if s.counter == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "stats are not configured")
	}

	stats := &models.Stats{}
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range statCounts {
		dest := c.dest(stats)
		g.Go(func() error {
			n, err := s.counter.Count(gctx, accessToken, c.table, c.filter())
			if err != nil {
				return err
			}
			*dest = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if backend.IsMissingRelation(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeTableNotFound, "database schema is missing; apply the storefront migrations")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "failed to gather stats")
	}
	stats.Timestamp = s.now()
	return stats, nil
}
