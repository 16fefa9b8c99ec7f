package service

import (
	"context"

	"storefront/internal/admin/models"
	"storefront/internal/backend"
	"storefront/internal/session"
	id "storefront/pkg/domain"
)

// AuthProvider is the hosted auth service.
// Error Contract: failures are *backend.Error; rejected credentials carry
// backend.CategoryUnauthorized and transport failures satisfy backend.IsNetwork.
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (*session.Identity, error)
	RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error)
}

// Directory looks up admin_users records with the signed-in user's token.
// Error Contract: the Find methods return (nil, nil) when no active row
// matches; other failures are *backend.Error.
type Directory interface {
	// CheckAdminStatus calls the privileged, policy-bypassing lookup function.
	CheckAdminStatus(ctx context.Context, accessToken string, userID id.UserID) ([]models.AdminRecord, error)
	FindActiveByID(ctx context.Context, accessToken string, userID id.UserID) (*models.AdminRecord, error)
	FindActiveByEmail(ctx context.Context, accessToken, email string) (*models.AdminRecord, error)
}

// Counter counts table rows for the dashboard.
type Counter interface {
	Count(ctx context.Context, accessToken, table string, f *backend.Filter) (int, error)
}
