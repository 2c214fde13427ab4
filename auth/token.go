// Package auth is the boundary to the identity provider. It trusts a signed
// bearer token for the user id and never handles credentials.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"railway-booking/models"
	"railway-booking/store"
)

var (
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("user not found")
)

// Claims is the token payload issued by the identity provider
type Claims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// TokenVerifier checks HS256 tokens shared with the identity provider
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier for the shared secret
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify returns the user id carried by a valid token
func (v *TokenVerifier) Verify(token string) (int64, error) {
	if len(v.secret) == 0 {
		return 0, fmt.Errorf("%w: verifier has no secret", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}

// Issue signs a token for userID. The identity provider normally does this;
// it is used for local development and tests.
func (v *TokenVerifier) Issue(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// Authenticator resolves a bearer token to a user that still exists
type Authenticator struct {
	verifier *TokenVerifier
	users    store.UserReader
}

// NewAuthenticator creates a new authenticator
func NewAuthenticator(verifier *TokenVerifier, users store.UserReader) *Authenticator {
	return &Authenticator{verifier: verifier, users: users}
}

// Authenticate takes the raw Authorization header value
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return nil, ErrNoToken
	}

	userID, err := a.verifier.Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
