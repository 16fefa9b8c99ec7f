// Package session models the credentials the hosted auth service hands out
// after a password sign-in. A Session is an explicit value passed through
// every call: nothing in this module keeps an implicit "current session".
package session

import (
	"time"

	id "storefront/pkg/domain"
)

// Identity is the authenticated principal issued by the hosted auth service.
type Identity struct {
	ID    id.UserID `json:"id"`
	Email string    `json:"email"`
}

// Session is a signed-in backend session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"user"`
}

// Active reports whether the session carries an access token that has not
// yet expired. A zero ExpiresAt is treated as "no expiry known".
func (s *Session) Active(now time.Time) bool {
	if s == nil || s.AccessToken == "" {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// Bearer returns the access token, or "" for a nil session.
func (s *Session) Bearer() string {
	if s == nil {
		return ""
	}
	return s.AccessToken
}
