package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/ivaylo9512/Platform-app-auth-server/pkg/errors"
)

// Claims is the identity payload signed into both token kinds: the user id
// and role, plus registered claims. It is never persisted.
type Claims struct {
	UserID int64  `json:"id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies access and refresh tokens. The two kinds use
// independent secrets and expiries. The codec is stateless: it never consults
// storage, so revocation is layered on top by the session service.
type TokenCodec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewTokenCodec creates a codec from the two signing secrets and their expiry
// durations. Missing secrets are a configuration error, not a runtime one.
func NewTokenCodec(accessSecret, refreshSecret string, accessExpiry, refreshExpiry time.Duration) (*TokenCodec, error) {
	if accessSecret == "" {
		return nil, fmt.Errorf("access token secret is not configured")
	}
	if refreshSecret == "" {
		return nil, fmt.Errorf("refresh token secret is not configured")
	}

	return &TokenCodec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}, nil
}

// RefreshExpiry returns the configured refresh token lifetime. The transport
// layer uses it for the cookie max age.
func (c *TokenCodec) RefreshExpiry() time.Duration {
	return c.refreshExpiry
}

// IssueAccess signs a short-lived access token for the given user.
func (c *TokenCodec) IssueAccess(userID int64, role string) (string, error) {
	return c.issue(userID, role, c.accessSecret, c.accessExpiry)
}

// IssueRefresh signs a long-lived refresh token for the given user and
// returns the token with its expiry time, which the caller persists.
func (c *TokenCodec) IssueRefresh(userID int64, role string) (string, time.Time, error) {
	expiresAt := time.Now().UTC().Add(c.refreshExpiry)
	token, err := c.issue(userID, role, c.refreshSecret, c.refreshExpiry)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (c *TokenCodec) issue(userID int64, role string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// Tokens are stored by value with a uniqueness constraint, so two
			// issues for the same user in the same second must still differ.
			ID:        uuid.New().String(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Issuer:    "auth-server",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// VerifyAccess parses and validates an access token, returning its claims.
// Failures map to the expired/invalid taxonomy so callers can branch on
// expiry without string matching.
func (c *TokenCodec) VerifyAccess(tokenString string) (*Claims, error) {
	return c.verify(tokenString, c.accessSecret)
}

// VerifyRefresh parses and validates a refresh token, returning its claims.
func (c *TokenCodec) VerifyRefresh(tokenString string) (*Claims, error) {
	return c.verify(tokenString, c.refreshSecret)
}

func (c *TokenCodec) verify(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("parse token: %w", apperrors.TokenExpired())
		}
		return nil, fmt.Errorf("parse token: %w", apperrors.TokenInvalid())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("token claims: %w", apperrors.TokenInvalid())
	}

	return claims, nil
}
