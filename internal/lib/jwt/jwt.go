// Package jwt issues and verifies signed session tokens.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/avdeyev/authsvc/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Issuer signs and verifies session tokens with a symmetric secret.
// The secret is fixed at construction and never exposed.
type Issuer struct {
	secret      []byte
	ttl         time.Duration
	rememberTTL time.Duration
}

// New returns an Issuer. ttl is the default token lifetime, rememberTTL
// the extended one used when the caller asked to stay signed in.
func New(secret string, ttl, rememberTTL time.Duration) *Issuer {
	return &Issuer{
		secret:      []byte(secret),
		ttl:         ttl,
		rememberTTL: rememberTTL,
	}
}

// Issue generates a signed token for the user. Lifetime is selected by
// remember.
func (i *Issuer) Issue(user models.User, remember bool) (string, error) {
	ttl := i.ttl
	if remember {
		ttl = i.rememberTTL
	}

	now := time.Now()
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: user.ID,
		Email:  user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Parse validates a token string and returns its claims. It returns
// ErrTokenExpired for a well-signed but stale token and ErrInvalidToken
// for everything else (bad signature, malformed payload, wrong alg).
func (i *Issuer) Parse(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
