package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/session"
	id "storefront/pkg/domain"
	dErrors "storefront/pkg/domain-errors"
)

// DefaultAudience is the audience the hosted auth service stamps on tokens
// of signed-in users.
const DefaultAudience = "authenticated"

// AccessTokenClaims are the claims of a hosted-backend access token.
type AccessTokenClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	SessionID string `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTService verifies access tokens issued by the hosted auth service, which
// signs them HS256 with the project's JWT secret. It can also mint tokens in
// the same shape for local development and tests.
type JWTService struct {
	signingKey []byte
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey string, audience string) *JWTService {
	if audience == "" {
		audience = DefaultAudience
	}
	return &JWTService{
		signingKey: []byte(signingKey),
		audience:   audience,
		now:        time.Now,
	}
}

// ValidateToken checks signature, algorithm, expiry and audience and returns
// the claims.
func (s *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "empty token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// SessionFromToken validates tokenString and wraps it in a Session. The
// refresh token is not part of an access token, so it stays empty.
func (s *JWTService) SessionFromToken(tokenString string) (*session.Session, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user id")
	}
	return &session.Session{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresAt:   claims.ExpiresAt.Time,
		Identity:    session.Identity{ID: userID, Email: claims.Email},
	}, nil
}

// GenerateAccessToken mints a token for identity valid for ttl.
func (s *JWTService) GenerateAccessToken(identity session.Identity, ttl time.Duration) (string, error) {
	if identity.ID.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity id cannot be nil")
	}
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		Email:     identity.Email,
		Role:      DefaultAudience,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  []string{s.audience},
		},
	})
	return token.SignedString(s.signingKey)
}
