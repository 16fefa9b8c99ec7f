package service

import (
	"context"
	"sync"

	"go.uber.org/mock/gomock"

	"storefront/internal/backend"
	dErrors "storefront/pkg/domain-errors"
)

func (s *ServiceSuite) TestStats() {
	ctx := context.Background()

	s.Run("gathers every count", func() {
		var mu sync.Mutex
		seen := map[string]int{}
		s.mockCounter.EXPECT().Count(gomock.Any(), "admin-token", gomock.Any(), gomock.Any()).
			Times(len(statCounts)).
			DoAndReturn(func(_ context.Context, _ string, table string, f *backend.Filter) (int, error) {
				mu.Lock()
				defer mu.Unlock()
				seen[table]++
				switch {
				case f.Values().Get("featured") != "":
					return 3, nil
				case f.Values().Get("stock_quantity") != "":
					return 1, nil
				case f.Values().Get("is_active") != "":
					return 4, nil
				case f.Values().Get("is_approved") != "":
					return 2, nil
				case f.Values().Get("is_read") != "":
					return 5, nil
				case table == "products":
					return 12, nil
				}
				return 6, nil
			})

		stats, err := s.service.Stats(ctx, "admin-token")
		s.Require().NoError(err)
		s.Equal(12, stats.TotalProducts)
		s.Equal(3, stats.FeaturedProducts)
		s.Equal(1, stats.OutOfStock)
		s.Equal(6, stats.TotalCategories)
		s.Equal(4, stats.ActiveCategories)
		s.Equal(2, stats.PendingReviews)
		s.Equal(5, stats.UnreadMessages)
		s.Equal(s.now, stats.Timestamp)
		s.Equal(map[string]int{"products": 3, "categories": 2, "reviews": 1, "contact_messages": 1}, seen)
	})

	s.Run("missing schema", func() {
		s.mockCounter.EXPECT().Count(gomock.Any(), "admin-token", gomock.Any(), gomock.Any()).
			Return(0, &backend.Error{Category: backend.CategoryNotFound, Code: backend.CodeSchemaCacheTable}).
			MinTimes(1).MaxTimes(len(statCounts))

		_, err := s.service.Stats(ctx, "admin-token")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeTableNotFound))
	})
}
