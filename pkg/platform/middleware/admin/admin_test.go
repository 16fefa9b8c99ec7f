package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"storefront/internal/session"
	id "storefront/pkg/domain"
	"storefront/pkg/requestcontext"
)

type stubChecker struct {
	admin bool
	err   error
	calls int
}

func (c *stubChecker) IsAdmin(context.Context, *session.Session) (bool, error) {
	c.calls++
	return c.admin, c.err
}

// AdminMiddlewareSuite checks that only active admins reach admin handlers.
type AdminMiddlewareSuite struct {
	suite.Suite
	sess *session.Session
}

func TestAdminMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(AdminMiddlewareSuite))
}

func (s *AdminMiddlewareSuite) SetupTest() {
	s.sess = &session.Session{
		AccessToken: "tok",
		Identity:    session.Identity{ID: id.UserID(uuid.New()), Email: "owner@shop.test"},
	}
}

func (s *AdminMiddlewareSuite) serve(checker AdminChecker, sess *session.Session) (*httptest.ResponseRecorder, string, bool) {
	var actor string
	called := false
	handler := RequireAdmin(checker, slog.Default())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		actor = GetAdminActorID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	if sess != nil {
		req = req.WithContext(requestcontext.WithSession(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, actor, called
}

func (s *AdminMiddlewareSuite) TestAdminPasses() {
	rec, actor, called := s.serve(&stubChecker{admin: true}, s.sess)

	s.Equal(http.StatusOK, rec.Code)
	s.True(called)
	s.Equal(s.sess.Identity.ID.String(), actor)
}

func (s *AdminMiddlewareSuite) TestNoSession() {
	checker := &stubChecker{admin: true}
	rec, _, called := s.serve(checker, nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.False(called)
	s.Zero(checker.calls)
}

func (s *AdminMiddlewareSuite) TestNonAdminForbidden() {
	rec, _, called := s.serve(&stubChecker{}, s.sess)

	s.Equal(http.StatusForbidden, rec.Code)
	s.False(called)
}

func (s *AdminMiddlewareSuite) TestCheckerFailure() {
	rec, _, called := s.serve(&stubChecker{err: errors.New("boom")}, s.sess)

	s.Equal(http.StatusBadGateway, rec.Code)
	s.False(called)
}

func (s *AdminMiddlewareSuite) TestActorIDAbsentOutsideAdminRoutes() {
	s.Empty(GetAdminActorID(context.Background()))
}
