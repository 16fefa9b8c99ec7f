package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	"storefront/internal/session"
	dErrors "storefront/pkg/domain-errors"
)

const (
	reasonInvalidCredentials = "invalid credentials"
	reasonNoAdminRecord      = "no matching active admin record"
	reasonPolicyError        = "authorization backend policy error"
)

// SignIn authenticates cred and resolves whether the identity is an active
// admin. It returns exactly one Outcome, or an error when the backend could
// not be reached (or the input is invalid).
//
// Once authentication has succeeded, every non-authorized path signs the new
// session out before returning, including the network error path.
// The credential's password is destroyed before SignIn returns.
func (s *Service) SignIn(ctx context.Context, cred *models.Credential) (*models.Outcome, error) {
	if cred == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "credentials are required")
	}
	defer cred.Destroy()

	email := strings.TrimSpace(cred.Email)
	if email == "" || len(cred.Password) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "email and password are required")
	}

	start := s.now()
	outcome, err := s.signIn(ctx, email, cred)
	s.observeSignIn(ctx, email, outcome, err, s.now().Sub(start))
	return outcome, err
}

func (s *Service) signIn(ctx context.Context, email string, cred *models.Credential) (*models.Outcome, error) {
	sess, err := s.auth.SignInWithPassword(ctx, email, string(cred.Password))
	if err != nil {
		if backend.CategoryOf(err) == backend.CategoryUnauthorized {
			return models.Denied(models.KindAuthenticationFailure, reasonInvalidCredentials), nil
		}
		switch {
		case backend.CategoryOf(err) == backend.CategoryRateLimited:
			return nil, dErrors.Wrap(err, dErrors.CodeRateLimited, "auth service is throttling sign-in")
		case backend.IsNetwork(err):
			return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "auth service unreachable")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "auth service failed")
	}

	r := &resolution{session: sess, email: email, identity: sess.Identity}
	record, strategy, err := firstMatch(ctx, s.strategies, r)
	switch {
	case errors.Is(err, errIdentityMismatch):
		s.logger.ErrorContext(ctx, "admin record bound to a different auth user",
			"user_id", r.identity.ID.String(),
			"admin_record_id", r.mismatched.ID.String(),
			"remediation", models.KindIdentityMismatch.Remediation(),
		)
		s.forceSignOut(ctx, sess, models.KindIdentityMismatch)
		return models.TransientError(models.KindIdentityMismatch, errIdentityMismatch.Error()), nil

	case err != nil:
		s.forceSignOut(ctx, sess, models.KindNetworkError)
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "admin lookup failed at "+string(strategy))

	case record != nil:
		if s.metrics != nil {
			s.metrics.IncrementStrategyMatch(string(strategy))
		}
		s.notifier.Publish(session.Event{
			Type:     session.EventSignedIn,
			Identity: sess.Identity,
			Session:  sess,
			At:       s.now(),
		})
		return models.Authorized(record, sess, strategy), nil

	case r.policyErr != nil:
		s.logger.ErrorContext(ctx, "admin lookup blocked by backend policy",
			"user_id", r.identity.ID.String(),
			"error", r.policyErr,
			"remediation", models.KindBackendPolicyError.Remediation(),
		)
		s.forceSignOut(ctx, sess, models.KindBackendPolicyError)
		return models.TransientError(models.KindBackendPolicyError, reasonPolicyError), nil
	}

	s.forceSignOut(ctx, sess, models.KindAuthorizationDenied)
	return models.Denied(models.KindAuthorizationDenied, reasonNoAdminRecord), nil
}

// forceSignOut ends a session that authenticated but is not authorized.
// The sign-out is best effort: the outcome is already decided, and a failed
// revocation is logged rather than returned.
func (s *Service) forceSignOut(ctx context.Context, sess *session.Session, kind models.Kind) {
	if err := s.auth.SignOut(context.WithoutCancel(ctx), sess.AccessToken); err != nil && !alreadySignedOut(err) {
		s.logger.ErrorContext(ctx, "failed to sign out unauthorized session",
			"user_id", sess.Identity.ID.String(),
			"kind", string(kind),
			"error", err,
		)
	}
	if s.metrics != nil {
		s.metrics.IncrementForcedSignOut(string(kind))
	}
	s.notifier.Publish(session.Event{
		Type:     session.EventSignedOut,
		Identity: sess.Identity,
		At:       s.now(),
	})
}

// alreadySignedOut reports logout answers that mean the session is gone.
func alreadySignedOut(err error) bool {
	switch backend.CategoryOf(err) {
	case backend.CategoryUnauthorized, backend.CategoryNotFound, backend.CategoryForbidden:
		return true
	}
	return false
}

func (s *Service) observeSignIn(ctx context.Context, email string, outcome *models.Outcome, err error, elapsed time.Duration) {
	status, kind := "error", errorKind(err)
	if outcome != nil {
		status, kind = string(outcome.Status), string(outcome.Kind)
	}

	attrs := []any{
		"email", pseudonymize(email),
		"status", status,
		"kind", kind,
		"duration_ms", elapsed.Milliseconds(),
	}
	attrs = append(attrs, requestAttrs(ctx)...)
	switch {
	case outcome.Authorized():
		attrs = append(attrs, "strategy", string(outcome.Strategy), "user_id", outcome.Record.ID.String())
		s.logAudit(ctx, "admin_signed_in", attrs...)
	case err != nil:
		s.logger.ErrorContext(ctx, "admin sign-in failed", append(attrs, "error", err)...)
	case outcome.Kind.OperatorFacing():
		s.logger.ErrorContext(ctx, "admin sign-in blocked by configuration fault", attrs...)
	default:
		s.logAudit(ctx, "admin_sign_in_rejected", attrs...)
	}

	if s.metrics != nil {
		s.metrics.IncrementSignInOutcome(status, kind)
		s.metrics.ObserveSignInDuration(float64(elapsed.Milliseconds()))
	}
}

// errorKind labels a propagated sign-in error by the backend failure class.
// Only transport failures count as network errors.
func errorKind(err error) string {
	switch c := backend.CategoryOf(err); c {
	case backend.CategoryNetwork, backend.CategoryTimeout:
		return string(models.KindNetworkError)
	default:
		return string(c)
	}
}
