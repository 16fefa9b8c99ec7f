package service

import (
	"context"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	"storefront/internal/session"
	dErrors "storefront/pkg/domain-errors"
)

// SignOut ends sess. It is idempotent: a nil or expired session is a no-op,
// and a backend that no longer knows the session counts as signed out.
func (s *Service) SignOut(ctx context.Context, sess *session.Session) error {
	if sess == nil || sess.AccessToken == "" {
		return nil
	}
	if sess.Active(s.now()) {
		if err := s.auth.SignOut(ctx, sess.AccessToken); err != nil && !alreadySignedOut(err) {
			return dErrors.Wrap(err, dErrors.CodeBadGateway, "failed to sign out")
		}
	}
	s.logAudit(ctx, "admin_signed_out", append([]any{"user_id", sess.Identity.ID.String()}, requestAttrs(ctx)...)...)
	s.notifier.Publish(session.Event{
		Type:     session.EventSignedOut,
		Identity: sess.Identity,
		At:       s.now(),
	})
	return nil
}

// CurrentAdmin returns the active admin record of the session's identity, or
// nil when there is no active session or no record. Only the direct query
// is used. Lookup failures are logged and reported as "not an admin".
func (s *Service) CurrentAdmin(ctx context.Context, sess *session.Session) (*models.AdminRecord, error) {
	if !sess.Active(s.now()) {
		return nil, nil
	}

	identity, err := s.auth.GetUser(ctx, sess.AccessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to resolve session identity",
			"category", backend.CategoryOf(err),
			"error", err,
		)
		return nil, nil
	}

	record, err := s.directory.FindActiveByID(ctx, sess.AccessToken, identity.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to look up current admin",
			"user_id", identity.ID.String(),
			"category", backend.CategoryOf(err),
			"error", err,
		)
		return nil, nil
	}
	if !record.Authorizes(*identity) {
		return nil, nil
	}
	return record, nil
}

// IsAdmin reports whether sess belongs to an active admin.
func (s *Service) IsAdmin(ctx context.Context, sess *session.Session) (bool, error) {
	record, err := s.CurrentAdmin(ctx, sess)
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// Subscribe registers fn for session transitions (signed_in, signed_out,
// token_refreshed). Notifications are synchronous. The returned function
// unsubscribes and may be called more than once.
func (s *Service) Subscribe(fn func(session.Event)) (unsubscribe func()) {
	return s.notifier.Subscribe(fn)
}

// RefreshSession exchanges the session's refresh token for a new session.
func (s *Service) RefreshSession(ctx context.Context, sess *session.Session) (*session.Session, error) {
	if sess == nil || sess.RefreshToken == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token is required")
	}
	refreshed, err := s.auth.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		if backend.CategoryOf(err) == backend.CategoryUnauthorized {
			return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadGateway, "failed to refresh session")
	}
	s.notifier.Publish(session.Event{
		Type:     session.EventTokenRefreshed,
		Identity: refreshed.Identity,
		Session:  refreshed,
		At:       s.now(),
	})
	return refreshed, nil
}
