package service

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	"storefront/internal/session"
	dErrors "storefront/pkg/domain-errors"
)

const (
	adminEmail    = "admin@x.com"
	adminPassword = "correct"
)

func credential() *models.Credential {
	return models.NewCredential(adminEmail, []byte(adminPassword))
}

func (s *ServiceSuite) TestSignIn_Validation() {
	ctx := context.Background()

	s.Run("nil credential", func() {
		_, err := s.service.SignIn(ctx, nil)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty email makes no call", func() {
		_, err := s.service.SignIn(ctx, models.NewCredential("  ", []byte(adminPassword)))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty password makes no call", func() {
		_, err := s.service.SignIn(ctx, models.NewCredential(adminEmail, nil))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ServiceSuite) TestSignIn_AuthenticationFailure() {
	ctx := context.Background()
	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, "wrong").
		Return(nil, &backend.Error{Category: backend.CategoryUnauthorized, Status: 400, Message: "Invalid login credentials"})

	outcome, err := s.service.SignIn(ctx, models.NewCredential(adminEmail, []byte("wrong")))
	s.Require().NoError(err)
	s.Equal(models.StatusDenied, outcome.Status)
	s.Equal(models.KindAuthenticationFailure, outcome.Kind)
	s.Equal("invalid credentials", outcome.Reason)
	s.Nil(outcome.Session)
	s.Empty(s.events)
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SignInOutcomes.WithLabelValues("denied", "authentication_failure")))
}

func (s *ServiceSuite) TestSignIn_AuthServiceUnreachable() {
	ctx := context.Background()
	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(nil, networkError())

	outcome, err := s.service.SignIn(ctx, credential())
	s.Require().Error(err)
	s.Nil(outcome)
	s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
	s.True(backend.IsNetwork(err))
}

func (s *ServiceSuite) TestSignIn_AuthServiceErrorKinds() {
	ctx := context.Background()

	tests := []struct {
		name     string
		err      error
		wantCode dErrors.Code
		wantKind string
	}{
		{
			name:     "throttled",
			err:      &backend.Error{Category: backend.CategoryRateLimited, Op: "auth.token", Status: 429, Message: "too many requests"},
			wantCode: dErrors.CodeRateLimited,
			wantKind: "rate_limited",
		},
		{
			name:     "server error",
			err:      &backend.Error{Category: backend.CategoryUnavailable, Op: "auth.token", Status: 503, Message: "service unavailable"},
			wantCode: dErrors.CodeBadGateway,
			wantKind: "unavailable",
		},
		{
			name:     "unreachable",
			err:      networkError(),
			wantCode: dErrors.CodeBadGateway,
			wantKind: "network_error",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(nil, tt.err)

			outcome, err := s.service.SignIn(ctx, credential())
			s.Require().Error(err)
			s.Nil(outcome)
			s.True(dErrors.HasCode(err, tt.wantCode), "got %v", err)
			s.Equal(float64(1), testutil.ToFloat64(s.metrics.SignInOutcomes.WithLabelValues("error", tt.wantKind)))
		})
	}
}

func (s *ServiceSuite) TestSignIn_PrivilegedMatch() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)
	record := newRecord(userID, adminEmail)
	cred := credential()

	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
	s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).
		Return([]models.AdminRecord{*record}, nil)

	outcome, err := s.service.SignIn(ctx, cred)
	s.Require().NoError(err)
	s.True(outcome.Authorized())
	s.Equal(models.StrategyPrivileged, outcome.Strategy)
	s.Equal(record, outcome.Record)
	s.Equal(sess, outcome.Session)
	s.Equal([]session.EventType{session.EventSignedIn}, s.eventTypes())
	s.Nil(cred.Password, "password is destroyed after use")
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.StrategyMatches.WithLabelValues("privileged_function")))
}

func (s *ServiceSuite) TestSignIn_DirectQueryFallback() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)
	record := newRecord(userID, adminEmail)

	s.Run("privileged function returns no rows", func() {
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return([]models.AdminRecord{}, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(record, nil)

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().NoError(err)
		s.True(outcome.Authorized())
		s.Equal(models.StrategyDirect, outcome.Strategy)
		s.Equal(record, outcome.Record)
	})

	s.Run("privileged function is not installed", func() {
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).
			Return(nil, &backend.Error{Category: backend.CategoryNotFound, Code: backend.CodeUndefinedFunction, Status: 404})
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(record, nil)

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().NoError(err)
		s.Equal(models.StrategyDirect, outcome.Strategy)
	})

	s.Run("privileged function returns only inactive rows", func() {
		inactive := *record
		inactive.IsActive = false
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return([]models.AdminRecord{inactive}, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(record, nil)

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().NoError(err)
		s.Equal(models.StrategyDirect, outcome.Strategy)
	})
}

func (s *ServiceSuite) TestSignIn_IdentityMismatch() {
	ctx := context.Background()
	userID := newUserID()
	otherID := newUserID()
	sess := s.newSession(userID, adminEmail)

	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
	s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
	s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, policyError())
	s.mockDirectory.EXPECT().FindActiveByEmail(gomock.Any(), sess.AccessToken, adminEmail).Return(newRecord(otherID, adminEmail), nil)
	s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)

	outcome, err := s.service.SignIn(ctx, credential())
	s.Require().NoError(err)
	s.Equal(models.StatusTransientError, outcome.Status)
	s.Equal(models.KindIdentityMismatch, outcome.Kind)
	s.Equal("identity mismatch between auth and admin records", outcome.Reason)
	s.Nil(outcome.Session)
	s.Equal([]session.EventType{session.EventSignedOut}, s.eventTypes())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.ForcedSignOuts.WithLabelValues("identity_mismatch")))
}

func (s *ServiceSuite) TestSignIn_EmailFallbackMatchesSameIdentity() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)
	record := newRecord(userID, adminEmail)

	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
	s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
	s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).
		Return(nil, &backend.Error{Category: backend.CategoryForbidden, Status: 403})
	s.mockDirectory.EXPECT().FindActiveByEmail(gomock.Any(), sess.AccessToken, adminEmail).Return(record, nil)

	outcome, err := s.service.SignIn(ctx, credential())
	s.Require().NoError(err)
	s.True(outcome.Authorized())
	s.Equal(models.StrategyEmail, outcome.Strategy)
}

func (s *ServiceSuite) TestSignIn_BackendPolicyError() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)

	s.Run("email fallback finds nothing", func() {
		s.events = nil
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, policyError())
		s.mockDirectory.EXPECT().FindActiveByEmail(gomock.Any(), sess.AccessToken, adminEmail).Return(nil, nil)
		s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().NoError(err)
		s.Equal(models.StatusTransientError, outcome.Status)
		s.Equal(models.KindBackendPolicyError, outcome.Kind)
		s.Equal("authorization backend policy error", outcome.Reason)
		s.True(outcome.Kind.OperatorFacing())
		s.NotEmpty(outcome.Kind.Remediation())
		s.Equal([]session.EventType{session.EventSignedOut}, s.eventTypes())
	})

	s.Run("email fallback is blocked too", func() {
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, policyError())
		s.mockDirectory.EXPECT().FindActiveByEmail(gomock.Any(), sess.AccessToken, adminEmail).Return(nil, policyError())
		s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().NoError(err)
		s.Equal(models.KindBackendPolicyError, outcome.Kind)
	})

	s.Run("missing admin table counts as policy error", func() {
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).
			Return(nil, &backend.Error{Category: backend.CategoryNotFound, Code: backend.CodeUndefinedTable, Status: 404})
		s.mockDirectory.EXPECT().FindActiveByEmail(gomock.Any(), sess.AccessToken, adminEmail).Return(nil, nil)
		s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().NoError(err)
		s.Equal(models.KindBackendPolicyError, outcome.Kind)
	})
}

func (s *ServiceSuite) TestSignIn_AuthorizationDenied() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)

	// No policy error on the direct query, so the email fallback must not run.
	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
	s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return([]models.AdminRecord{}, nil)
	s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
	s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)

	outcome, err := s.service.SignIn(ctx, credential())
	s.Require().NoError(err)
	s.Equal(models.StatusDenied, outcome.Status)
	s.Equal(models.KindAuthorizationDenied, outcome.Kind)
	s.Equal("no matching active admin record", outcome.Reason)
	s.False(outcome.Kind.OperatorFacing())
	s.Equal([]session.EventType{session.EventSignedOut}, s.eventTypes())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.SignInOutcomes.WithLabelValues("denied", "authorization_denied")))
}

func (s *ServiceSuite) TestSignIn_ForcedSignOutFailureKeepsOutcome() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)

	s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
	s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
	s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
	s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).
		Return(&backend.Error{Category: backend.CategoryUnavailable, Status: 503})

	outcome, err := s.service.SignIn(ctx, credential())
	s.Require().NoError(err)
	s.Equal(models.KindAuthorizationDenied, outcome.Kind)
}

func (s *ServiceSuite) TestSignIn_NetworkErrorAfterAuthentication() {
	ctx := context.Background()
	userID := newUserID()
	sess := s.newSession(userID, adminEmail)

	s.Run("during privileged lookup", func() {
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, networkError())
		s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(networkError())

		outcome, err := s.service.SignIn(ctx, credential())
		s.Require().Error(err)
		s.Nil(outcome)
		s.True(dErrors.HasCode(err, dErrors.CodeBadGateway))
		s.True(backend.IsNetwork(err))
		s.Contains(err.Error(), "privileged_function")
	})

	s.Run("during email fallback", func() {
		s.mockAuth.EXPECT().SignInWithPassword(gomock.Any(), adminEmail, adminPassword).Return(sess, nil)
		s.mockDirectory.EXPECT().CheckAdminStatus(gomock.Any(), sess.AccessToken, userID).Return(nil, nil)
		s.mockDirectory.EXPECT().FindActiveByID(gomock.Any(), sess.AccessToken, userID).Return(nil, policyError())
		s.mockDirectory.EXPECT().FindActiveByEmail(gomock.Any(), sess.AccessToken, adminEmail).
			Return(nil, &backend.Error{Category: backend.CategoryTimeout})
		s.mockAuth.EXPECT().SignOut(gomock.Any(), sess.AccessToken).Return(nil)

		_, err := s.service.SignIn(ctx, credential())
		s.Require().Error(err)
		var be *backend.Error
		s.True(errors.As(err, &be))
		s.Equal(backend.CategoryTimeout, be.Category)
	})
}

func (s *ServiceSuite) TestFirstMatch() {
	ctx := context.Background()
	calls := 0
	pass := func(context.Context, *resolution) (*models.AdminRecord, error) {
		calls++
		return nil, nil
	}
	hit := func(context.Context, *resolution) (*models.AdminRecord, error) {
		calls++
		return &models.AdminRecord{IsActive: true}, nil
	}
	stop := errors.New("stop")
	fail := func(context.Context, *resolution) (*models.AdminRecord, error) {
		calls++
		return nil, stop
	}

	record, name, err := firstMatch(ctx, []strategy{{"a", pass}, {"b", hit}, {"c", hit}}, &resolution{})
	s.Require().NoError(err)
	s.NotNil(record)
	s.Equal(models.Strategy("b"), name)
	s.Equal(2, calls)

	calls = 0
	_, name, err = firstMatch(ctx, []strategy{{"a", fail}, {"b", hit}}, &resolution{})
	s.ErrorIs(err, stop)
	s.Equal(models.Strategy("a"), name)
	s.Equal(1, calls)

	record, name, err = firstMatch(ctx, []strategy{{"a", pass}}, &resolution{})
	s.NoError(err)
	s.Nil(record)
	s.Empty(name)
}
