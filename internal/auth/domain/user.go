package domain

import (
	"strings"
	"time"
)

type User struct {
	ID            string
	Name          string
	Email         string // normalized, see NormalizeEmail
	PasswordHash  string // argon2 encoded
	Role          Role
	EmailVerified bool

	// Verification and password reset codes are independent pairs; each is
	// either fully set or fully nil.
	OTPCode           *string
	OTPExpiresAt      *time.Time
	ResetOTPCode      *string
	ResetOTPExpiresAt *time.Time

	MFAEnabled bool
	MFASecret  *string // TOTP secret (base32), set from setup until disable

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the sanitized projection returned to clients: no password
// hash, no MFA secret, no pending codes.
type PublicUser struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	MFAEnabled      bool      `json:"mfaEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		IsEmailVerified: u.EmailVerified,
		MFAEnabled:      u.MFAEnabled,
		CreatedAt:       u.CreatedAt,
	}
}

// Identity is what a verified token asserts about its bearer.
func (u User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email, Role: u.Role}
}

// NormalizeEmail trims and lower-cases an address. Uniqueness and lookups are
// always done on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
