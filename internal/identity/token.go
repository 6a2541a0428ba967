// Package identity verifies bearer tokens issued by the external identity
// provider and exposes the authenticated caller to the rest of the service.
package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/resono-hq/resono/internal/shared"
)

// ErrInvalidToken indicates a missing, malformed, or expired identity token.
var ErrInvalidToken = errors.New("identity: invalid token")

// VerifierConfig defines how identity tokens are verified.
type VerifierConfig struct {
	Secret []byte
	Now    func() time.Time
}

// Verifier validates HS256 identity tokens.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

type identityClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewVerifier constructs a Verifier.
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("identity: token secret required")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: cfg.Secret, now: now}, nil
}

// Verify parses and validates a raw bearer token, returning the identity it
// asserts. The subject claim carries the stable provider-issued user id.
func (v *Verifier) Verify(raw string) (shared.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return shared.Identity{}, ErrInvalidToken
	}
	var claims identityClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return shared.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return shared.Identity{}, ErrInvalidToken
	}
	return shared.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}
