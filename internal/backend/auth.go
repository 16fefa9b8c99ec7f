package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"storefront/internal/session"
	id "storefront/pkg/domain"
)

// tokenResponse is the auth service's session payload.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (u userResponse) identity(op string) (session.Identity, error) {
	uid, err := id.ParseUserID(u.ID)
	if err != nil {
		return session.Identity{}, &Error{Category: CategoryBadData, Op: op, Message: "auth user has no valid id", Err: err}
	}
	return session.Identity{ID: uid, Email: u.Email}, nil
}

// SignInWithPassword exchanges an email and password for a session.
// Rejected credentials come back as CategoryUnauthorized regardless of the
// exact 4xx status the auth service chose.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*session.Session, error) {
	return c.token(ctx, "auth.sign_in", "password", map[string]string{
		"email":    email,
		"password": password,
	})
}

// RefreshSession exchanges a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*session.Session, error) {
	return c.token(ctx, "auth.refresh", "refresh_token", map[string]string{
		"refresh_token": refreshToken,
	})
}

func (c *Client) token(ctx context.Context, op, grant string, body map[string]string) (*session.Session, error) {
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {grant}},
		body:   body,
	})
	if err != nil {
		return nil, rejectCredentials(err)
	}

	var tr tokenResponse
	if err := decode(op, resp, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, &Error{Category: CategoryBadData, Op: op, Status: resp.status, Message: "token response has no access token"}
	}
	ident, err := tr.User.identity(op)
	if err != nil {
		return nil, err
	}
	return &session.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		ExpiresAt:    c.expiry(tr.ExpiresAt, tr.ExpiresIn),
		Identity:     ident,
	}, nil
}

func (c *Client) expiry(expiresAt, expiresIn int64) time.Time {
	switch {
	case expiresAt > 0:
		return time.Unix(expiresAt, 0).UTC()
	case expiresIn > 0:
		return c.now().Add(time.Duration(expiresIn) * time.Second).UTC()
	}
	return time.Time{}
}

// rejectCredentials folds the 4xx answers of the token endpoint into
// CategoryUnauthorized.
func rejectCredentials(err error) error {
	be, ok := err.(*Error)
	if !ok {
		return err
	}
	switch be.Category {
	case CategoryBadRequest, CategoryForbidden, CategoryNotFound:
		if be.Status >= 400 && be.Status < 500 {
			be.Category = CategoryUnauthorized
		}
	}
	return be
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	_, err := c.do(ctx, request{
		op:     "auth.sign_out",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	})
	return err
}

// GetUser resolves the identity that owns accessToken.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*session.Identity, error) {
	const op = "auth.get_user"
	resp, err := c.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	})
	if err != nil {
		return nil, err
	}
	var u userResponse
	if err := decode(op, resp, &u); err != nil {
		return nil, err
	}
	ident, err := u.identity(op)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

// Health checks that the auth service answers.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, request{
		op:     "auth.health",
		method: http.MethodGet,
		path:   "/auth/v1/health",
	})
	return err
}
