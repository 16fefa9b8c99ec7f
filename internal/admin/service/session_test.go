package service

import (
	"context"
	"time"

	"go.uber.org/mock/gomock"

	"storefront/internal/backend"
	"storefront/internal/session"
	dErrors "storefront/pkg/domain-errors"
)

func (s *ServiceSuite) TestSignOut() {
	ctx := context.Background()
	sess := s.newSession(newUserID(), adminEmail)

	s.Run("nil session is a no-op", func() {
		s.NoError(s.service.SignOut(ctx, nil))
		s.Empty(s.events)
	})

	s.Run("twice in a row is idempotent", func() {
		s.events = nil
		gomock.InOrder(
			s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil),
			s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).
				Return(&backend.Error{Category: backend.CategoryUnauthorized, Status: 401}),
		)

		s.NoError(s.service.SignOut(ctx, sess))
		s.NoError(s.service.SignOut(ctx, sess))
		s.Equal([]session.EventType{session.EventSignedOut, session.EventSignedOut}, s.eventTypes())
	})

	s.Run("expired session skips the backend", func() {
		expired := *sess
		expired.ExpiresAt = s.now.Add(-time.Minute)
		s.NoError(s.service.SignOut(ctx, &expired))
	})

	s.Run("backend failure is reported", func() {
		s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).
			Return(&backend.Error{Category: backend.CategoryUnavailable, Status: 503})

		err := s.service.SignOut(ctx, sess)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	})
}

func (s *ServiceSuite) TestCurrentAdmin() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)

	s.Run("no session makes no lookup", func() {
		record, err := s.service.CurrentAdmin(ctx, nil)
		s.NoError(err)
		s.Nil(record)

		ok, err := s.service.IsAdmin(ctx, nil)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("expired session makes no lookup", func() {
		expired := *sess
		expired.ExpiresAt = s.now.Add(-time.Second)
		ok, err := s.service.IsAdmin(ctx, &expired)
		s.NoError(err)
		s.False(ok)
	})

	s.Run("active admin", func() {
		identity := sess.Identity
		s.mockAuth.EXPECT().GetUser(gomock.Any(), sess.AccessToken).Return(&identity, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(newRecord(userID, adminEmail), nil)

		ok, err := s.service.IsAdmin(ctx, sess)
		s.NoError(err)
		s.True(ok)
	})

	s.Run("uses only the direct query", func() {
		identity := sess.Identity
		s.mockAuth.EXPECT().GetUser(gomock.Any(), sess.AccessToken).Return(&identity, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, policyError())

		record, err := s.service.CurrentAdmin(ctx, sess)
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("revoked token is not an admin", func() {
		s.mockAuth.EXPECT().GetUser(gomock.Any(), sess.AccessToken).
			Return(nil, &backend.Error{Category: backend.CategoryUnauthorized, Status: 401})

		ok, err := s.service.IsAdmin(ctx, sess)
		s.NoError(err)
		s.False(ok)
	})
}

func (s *ServiceSuite) TestSubscribe() {
	var got []session.EventType
	unsubscribe := s.service.Subscribe(func(ev session.Event) {
		got = append(got, ev.Type)
	})
	sess := s.newSession(newUserID(), adminEmail)

	s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)
	s.Require().NoError(s.service.SignOut(context.Background(), sess))
	s.Equal([]session.EventType{session.EventSignedOut}, got)

	unsubscribe()
	unsubscribe()
	s.Require().NoError(s.service.SignOut(context.Background(), nil))
	expired := *sess
	expired.ExpiresAt = s.now.Add(-time.Second)
	s.Require().NoError(s.service.SignOut(context.Background(), &expired))
	s.Len(got, 1)
}

func (s *ServiceSuite) TestRefreshSession() {
	ctx := context.Background()
	sess := s.newSession(newUserID(), adminEmail)

	s.Run("emits token_refreshed", func() {
		s.events = nil
		refreshed := *sess
		refreshed.AccessToken = "new-access"
		s.mockAuth.EXPECT().RefreshSession(gomock.Any(), sess.RefreshToken).Return(&refreshed, nil)

		got, err := s.service.RefreshSession(ctx, sess)
		s.Require().NoError(err)
		s.Equal("new-access", got.AccessToken)
		s.Equal([]session.EventType{session.EventTokenRefreshed}, s.eventTypes())
	})

	s.Run("missing refresh token", func() {
		_, err := s.service.RefreshSession(ctx, &session.Session{AccessToken: "a"})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("rejected refresh token", func() {
		s.mockAuth.EXPECT().RefreshSession(gomock.Any(), sess.RefreshToken).
			Return(nil, &backend.Error{Category: backend.CategoryUnauthorized, Status: 400})

		_, err := s.service.RefreshSession(ctx, sess)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
