package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"storefront/internal/backend"
	"storefront/internal/platform/metrics"
	"storefront/internal/review/models"
	"storefront/internal/review/service/mocks"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/platform/middleware/requesttime"
)

type ReviewServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
	productID id.ProductID
	reviewID  id.ReviewID
}

func TestReviewServiceSuite(t *testing.T) {
	suite.Run(t, new(ReviewServiceSuite))
}

func (s *ReviewServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.mockStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.now = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	s.ctx = requesttime.WithTime(context.Background(), s.now)
	s.productID = id.ProductID(uuid.New())
	s.reviewID = id.ReviewID(uuid.New())
}

func (s *ReviewServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ReviewServiceSuite) TestForProduct() {
	s.Run("approved only", func() {
		s.mockStore.EXPECT().List(gomock.Any(), "", models.Query{ProductID: s.productID, ApprovedOnly: true}).
			Return([]models.Review{{Rating: 5}}, nil)

		rows, err := s.service.ForProduct(s.ctx, "", s.productID)
		s.Require().NoError(err)
		s.Len(rows, 1)
	})

	s.Run("backend failure is translated", func() {
		s.mockStore.EXPECT().List(gomock.Any(), "", gomock.Any()).
			Return(nil, &backend.Error{Category: backend.CategoryNetwork})

		_, err := s.service.ForProduct(s.ctx, "", s.productID)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	})
}

func (s *ReviewServiceSuite) TestModerationQueue() {
	s.mockStore.EXPECT().List(gomock.Any(), "admin", models.Query{}).Return([]models.Review{{}, {}}, nil)

	rows, err := s.service.ModerationQueue(s.ctx, "admin")
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *ReviewServiceSuite) TestSubmit() {
	s.Run("stores a sanitized, unapproved review stamped with the request time", func() {
		s.mockStore.EXPECT().Create(gomock.Any(), "", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, row *models.NewReview) (*models.Review, error) {
				s.Equal(s.productID, row.ProductID)
				s.Equal("Ann", row.CustomerName)
				s.Equal("Great lamp & bright", row.Comment)
				s.False(row.IsApproved)
				s.Equal(s.now, row.CreatedAt)
				return &models.Review{ID: s.reviewID, ProductID: row.ProductID, Rating: row.Rating}, nil
			})

		review, err := s.service.Submit(s.ctx, "", s.productID, &models.SubmitRequest{
			CustomerName: "<b>Ann</b>",
			Rating:       4,
			Comment:      `Great lamp &amp; bright<script>alert("x")</script>`,
		})
		s.Require().NoError(err)
		s.Equal(s.reviewID, review.ID)
		s.Equal(float64(1), testutil.ToFloat64(s.metrics.ReviewsSubmitted))
	})

	s.Run("name made only of markup is rejected", func() {
		_, err := s.service.Submit(s.ctx, "", s.productID, &models.SubmitRequest{CustomerName: "<i></i>", Rating: 3})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("nil product id", func() {
		_, err := s.service.Submit(s.ctx, "", id.ProductID{}, &models.SubmitRequest{CustomerName: "Ann", Rating: 3})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("policy rejection is forbidden and not counted", func() {
		before := testutil.ToFloat64(s.metrics.ReviewsSubmitted)
		s.mockStore.EXPECT().Create(gomock.Any(), "", gomock.Any()).
			Return(nil, &backend.Error{Category: backend.CategoryForbidden, Status: 403, Code: backend.CodeInsufficientPriv})

		_, err := s.service.Submit(s.ctx, "", s.productID, &models.SubmitRequest{CustomerName: "Ann", Rating: 3})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(before, testutil.ToFloat64(s.metrics.ReviewsSubmitted))
	})
}

func (s *ReviewServiceSuite) TestModeration() {
	s.Run("approve sets is_approved", func() {
		s.mockStore.EXPECT().Update(gomock.Any(), "admin", s.reviewID, gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, _ id.ReviewID, patch *models.Patch) (*models.Review, error) {
				s.Require().NotNil(patch.IsApproved)
				s.True(*patch.IsApproved)
				return &models.Review{ID: s.reviewID, IsApproved: true}, nil
			})

		review, err := s.service.Approve(s.ctx, "admin", s.reviewID)
		s.Require().NoError(err)
		s.True(review.IsApproved)
	})

	s.Run("update of a missing review is not found", func() {
		comment := "edited"
		s.mockStore.EXPECT().Update(gomock.Any(), "admin", s.reviewID, gomock.Any()).Return(nil, nil)

		_, err := s.service.Update(s.ctx, "admin", s.reviewID, &models.Patch{Comment: &comment})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("empty patch", func() {
		_, err := s.service.Update(s.ctx, "admin", s.reviewID, &models.Patch{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("delete", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), "admin", s.reviewID).Return(nil)
		s.NoError(s.service.Delete(s.ctx, "admin", s.reviewID))
	})
}
