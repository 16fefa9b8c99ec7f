package service

import (
	"context"
	"errors"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	"storefront/internal/session"
)

// errIdentityMismatch halts the cascade: an admin record exists for the
// credential's email but is keyed to a different auth user.
var errIdentityMismatch = errors.New("identity mismatch between auth and admin records")

// resolution is the state shared by the strategies of one sign-in.
type resolution struct {
	session  *session.Session
	email    string
	identity session.Identity

	// policyErr is set when the direct query failed with a backend
	// authorization error; it enables the email fallback.
	policyErr error
	// mismatched is the email-matched record whose id differs.
	mismatched *models.AdminRecord
}

// strategy is one admin lookup. It returns (nil, nil) to pass to the next
// strategy and a non-nil error to stop the cascade.
type strategy struct {
	name models.Strategy
	run  func(ctx context.Context, r *resolution) (*models.AdminRecord, error)
}

func (s *Service) defaultStrategies() []strategy {
	return []strategy{
		{name: models.StrategyPrivileged, run: s.privilegedLookup},
		{name: models.StrategyDirect, run: s.directLookup},
		{name: models.StrategyEmail, run: s.emailFallback},
	}
}

// firstMatch runs strategies in order and returns the first record found.
func firstMatch(ctx context.Context, strategies []strategy, r *resolution) (*models.AdminRecord, models.Strategy, error) {
	for _, st := range strategies {
		record, err := st.run(ctx, r)
		if err != nil {
			return nil, st.name, err
		}
		if record != nil {
			return record, st.name, nil
		}
	}
	return nil, "", nil
}

func (s *Service) privilegedLookup(ctx context.Context, r *resolution) (*models.AdminRecord, error) {
	rows, err := s.directory.CheckAdminStatus(ctx, r.session.AccessToken, r.identity.ID)
	if err != nil {
		if backend.IsNetwork(err) {
			return nil, err
		}
		s.logger.DebugContext(ctx, "privileged admin lookup unavailable",
			"category", backend.CategoryOf(err),
			"error", err,
		)
		return nil, nil
	}
	for i := range rows {
		if rows[i].Authorizes(r.identity) {
			return &rows[i], nil
		}
	}
	return nil, nil
}

func (s *Service) directLookup(ctx context.Context, r *resolution) (*models.AdminRecord, error) {
	record, err := s.directory.FindActiveByID(ctx, r.session.AccessToken, r.identity.ID)
	if err != nil {
		if backend.IsNetwork(err) {
			return nil, err
		}
		if isPolicyFailure(err) {
			r.policyErr = err
		}
		s.logger.WarnContext(ctx, "direct admin lookup failed",
			"category", backend.CategoryOf(err),
			"policy_error", r.policyErr != nil,
			"error", err,
		)
		return nil, nil
	}
	if !record.Authorizes(r.identity) {
		return nil, nil
	}
	return record, nil
}

func (s *Service) emailFallback(ctx context.Context, r *resolution) (*models.AdminRecord, error) {
	if r.policyErr == nil {
		return nil, nil
	}
	record, err := s.directory.FindActiveByEmail(ctx, r.session.AccessToken, r.email)
	if err != nil {
		if backend.IsNetwork(err) {
			return nil, err
		}
		s.logger.WarnContext(ctx, "email admin lookup failed",
			"category", backend.CategoryOf(err),
			"error", err,
		)
		return nil, nil
	}
	if record == nil || !record.IsActive {
		return nil, nil
	}
	if record.ID != r.identity.ID {
		r.mismatched = record
		return nil, errIdentityMismatch
	}
	return record, nil
}

// isPolicyFailure reports backend errors that mean "the lookup was blocked",
// as opposed to "there is no such row". A missing admin_users relation is a
// deployment fault, so it counts.
func isPolicyFailure(err error) bool {
	return backend.IsPolicyError(err) || backend.IsMissingRelation(err)
}
