package auth

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"storefront/internal/session"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
	"storefront/pkg/requestcontext"
)

type MockTokenVerifier struct {
	mock.Mock
}

func (m *MockTokenVerifier) SessionFromToken(token string) (*session.Session, error) {
	args := m.Called(token)
	if sess := args.Get(0); sess != nil {
		return sess.(*session.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

// captureHandler records whether it ran and the context it saw.
type captureHandler struct {
	called  bool
	context context.Context
}

func (h *captureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.context = r.Context()
	w.WriteHeader(http.StatusOK)
}

type AuthMiddlewareTestSuite struct {
	suite.Suite
	verifier *MockTokenVerifier
	next     *captureHandler
	sess     *session.Session
}

func (s *AuthMiddlewareTestSuite) SetupTest() {
	s.verifier = new(MockTokenVerifier)
	s.next = &captureHandler{}
	s.sess = &session.Session{
		AccessToken: "good-token",
		Identity:    session.Identity{ID: id.UserID(uuid.New()), Email: "owner@shop.test"},
	}
}

func (s *AuthMiddlewareTestSuite) serve(mw func(http.Handler) http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	mw(s.next).ServeHTTP(rec, req)
	return rec
}

func (s *AuthMiddlewareTestSuite) TestRequireAuth() {
	s.Run("valid token stores the session", func() {
		s.SetupTest()
		s.verifier.On("SessionFromToken", "good-token").Return(s.sess, nil).Once()

		rec := s.serve(RequireAuth(s.verifier, slog.Default()), "Bearer good-token")

		s.Equal(http.StatusOK, rec.Code)
		s.Require().True(s.next.called)
		s.Same(s.sess, requestcontext.Session(s.next.context))
		s.verifier.AssertExpectations(s.T())
	})

	s.Run("missing header is rejected without verification", func() {
		s.SetupTest()

		rec := s.serve(RequireAuth(s.verifier, slog.Default()), "")

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.False(s.next.called)
		s.verifier.AssertNotCalled(s.T(), "SessionFromToken", mock.Anything)
	})

	s.Run("non-bearer scheme is rejected", func() {
		s.SetupTest()

		rec := s.serve(RequireAuth(s.verifier, slog.Default()), "Basic dXNlcjpwYXNz")

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.False(s.next.called)
	})

	s.Run("invalid token is rejected", func() {
		s.SetupTest()
		s.verifier.On("SessionFromToken", "bad").Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")).Once()

		rec := s.serve(RequireAuth(s.verifier, slog.Default()), "Bearer bad")

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Contains(rec.Body.String(), "Invalid or expired token")
		s.False(s.next.called)
	})
}

func (s *AuthMiddlewareTestSuite) TestOptionalAuth() {
	s.Run("anonymous request passes without session", func() {
		s.SetupTest()

		rec := s.serve(OptionalAuth(s.verifier, slog.Default()), "")

		s.Equal(http.StatusOK, rec.Code)
		s.Nil(requestcontext.Session(s.next.context))
	})

	s.Run("invalid token falls back to anonymous", func() {
		s.SetupTest()
		s.verifier.On("SessionFromToken", "stale").Return(nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")).Once()

		rec := s.serve(OptionalAuth(s.verifier, slog.Default()), "Bearer stale")

		s.Equal(http.StatusOK, rec.Code)
		s.Nil(requestcontext.Session(s.next.context))
	})

	s.Run("valid token stores the session", func() {
		s.SetupTest()
		s.verifier.On("SessionFromToken", "good-token").Return(s.sess, nil).Once()

		s.serve(OptionalAuth(s.verifier, slog.Default()), "Bearer good-token")

		s.Same(s.sess, requestcontext.Session(s.next.context))
	})
}

func TestAuthMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AuthMiddlewareTestSuite))
}
