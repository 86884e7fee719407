package claims

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a bearer token cannot be decoded. Callers
// must treat it as "no valid session", never as a recoverable condition.
var ErrMalformed = errors.New("malformed bearer token")

// Claims is the decoded, self-describing payload of a bearer token.
// Derived on demand, never persisted.
type Claims struct {
	UserID      string
	Email       string
	Roles       []string
	Permissions []string

	// ExpiresAt is the zero time when the token carries no exp claim.
	// A missing exp counts as already expired.
	ExpiresAt time.Time
}

// payload mirrors the wire shape of the token body. The role and permissions
// claims arrive as either a single string or an array of strings depending on
// the issuer; jwt.ClaimStrings accepts both.
type payload struct {
	UserID      string           `json:"userId"`
	Email       string           `json:"email,omitempty"`
	Role        jwt.ClaimStrings `json:"role,omitempty"`
	Permissions jwt.ClaimStrings `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(jwt.WithoutClaimsValidation())

// Decode parses the claims out of token. It is pure: no network, no shared
// state, no signature verification. Any structural failure is reported as
// [ErrMalformed].
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	var p payload
	if _, _, err := parser.ParseUnverified(token, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	c := &Claims{
		UserID:      p.UserID,
		Email:       p.Email,
		Roles:       []string(p.Role),
		Permissions: []string(p.Permissions),
	}
	if c.UserID == "" {
		c.UserID = p.Subject
	}
	if p.ExpiresAt != nil {
		c.ExpiresAt = p.ExpiresAt.Time
	}

	return c, nil
}

// ExpiredAt reports whether the claims are expired relative to now.
// Absence of an exp claim is treated as already expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return !now.Before(c.ExpiresAt)
}

// TTL returns the time remaining until expiry, never negative.
func (c *Claims) TTL(now time.Time) time.Duration {
	if c.ExpiredAt(now) {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}
