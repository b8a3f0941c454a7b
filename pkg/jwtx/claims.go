package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lecternhq/lectern/pkg/idx"
)

// Default lifetimes for the three token kinds the auth service mints.
const (
	DefaultAccessTokenTTL     = time.Hour
	DefaultRefreshTokenTTL    = 7 * 24 * time.Hour
	DefaultPendingMFATokenTTL = 5 * time.Minute
)

// UseRefresh marks a refresh token. Access and pending-MFA tokens leave Use
// empty so every guard decodes them the same way.
const UseRefresh = "refresh"

// Claims carried by every token: {sub, email, role, exp, mfa?}.
type Claims struct {
	jwt.RegisteredClaims

	Email string `json:"email"`
	Role  string `json:"role"`

	// MFA is set on short-lived tokens issued after the password check but
	// before the second factor. Only the step-up endpoint accepts them.
	MFA bool `json:"mfa,omitempty"`

	Use string `json:"use,omitempty"`
}

// NewClaims builds claims for subject valid from now for ttl. Every call gets
// a fresh jti, so two tokens minted in the same second never share a raw
// string.
func NewClaims(subject, email, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email: email,
		Role:  role,
	}
}

// NewJTI returns a sortable unique identifier for the "jti" claim.
func NewJTI() string {
	return idx.New().String()
}

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool { return c.Use == UseRefresh }

// IsPendingMFA reports whether the claims belong to a pre-second-factor token.
func (c *Claims) IsPendingMFA() bool { return c.MFA }

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
