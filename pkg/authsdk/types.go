package authsdk

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	passwordMinLen = 8
	passwordMaxLen = 128
	nameMaxLen     = 100
	emailMaxLen    = 254
	otpLen         = 6
	backupCodeLen  = 10
)

// ============================================================================
// Users
// ============================================================================

// User is the sanitized account record. It never carries the password hash,
// the MFA secret or pending codes.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	MFAEnabled      bool      `json:"mfaEnabled"`
	CreatedAt       time.Time `json:"createdAt"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() map[string]string {
	// Surrounding spaces are tolerated; the service trims and lowercases.
	r.Email = strings.TrimSpace(r.Email)
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, nameMaxLen)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, emailMaxLen), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)),
	))
}

type RegisterResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func (r VerifyOTPRequest) Validate() map[string]string {
	r.Email = strings.TrimSpace(r.Email)
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OTP, validation.Required, validation.Length(otpLen, otpLen), is.Digit),
	))
}

type VerifyOTPResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// EmailRequest is the body of resend-otp and forgot-password.
type EmailRequest struct {
	Email string `json:"email"`
}

func (r EmailRequest) Validate() map[string]string {
	r.Email = strings.TrimSpace(r.Email)
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	))
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTPCode     string `json:"otpCode"`
	NewPassword string `json:"newPassword"`
}

func (r ResetPasswordRequest) Validate() map[string]string {
	r.Email = strings.TrimSpace(r.Email)
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.OTPCode, validation.Required, validation.Length(otpLen, otpLen), is.Digit),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(passwordMinLen, passwordMaxLen)),
	))
}

// MessageResponse is the body of endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Sessions
// ============================================================================

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() map[string]string {
	r.Email = strings.TrimSpace(r.Email)
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(1, passwordMaxLen)),
	))
}

// LoginResponse is either a session (tokens and user) or, when the account
// has MFA enabled, a challenge carrying a short lived temp token.
type LoginResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	User         *User  `json:"user,omitempty"`

	MFARequired bool   `json:"mfaRequired,omitempty"`
	TempToken   string `json:"tempToken,omitempty"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (r RefreshRequest) Validate() map[string]string {
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	))
}

// TokenResponse is returned by refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LogoutRequest optionally names the refresh token to revoke with the bearer.
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type MeResponse struct {
	User User `json:"user"`
}

// ============================================================================
// MFA
// ============================================================================

type MFASetupResponse struct {
	OTPAuthURL  string   `json:"otpauthUrl"`
	Base32      string   `json:"base32"`
	QRCode      string   `json:"qrCode"`
	BackupCodes []string `json:"backupCodes"`
}

// MFATokenRequest carries a TOTP code for activate and disable.
type MFATokenRequest struct {
	Token string `json:"token"`
}

func (r MFATokenRequest) Validate() map[string]string {
	return details(validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required, validation.Length(otpLen, otpLen), is.Digit),
	))
}

// MFAVerifyLoginRequest carries exactly one of a TOTP code or a backup code.
type MFAVerifyLoginRequest struct {
	Token  string `json:"token,omitempty"`
	Backup string `json:"backup,omitempty"`
}

func (r MFAVerifyLoginRequest) Validate() map[string]string {
	errs := details(validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Length(otpLen, otpLen), is.Digit),
		validation.Field(&r.Backup, validation.Length(backupCodeLen, backupCodeLen), is.Hexadecimal),
	))
	if (r.Token == "") == (r.Backup == "") {
		if errs == nil {
			errs = map[string]string{}
		}
		errs["token"] = "provide exactly one of token or backup"
	}
	return errs
}

type MFAActivateResponse struct {
	Enabled bool `json:"enabled"`
}

type MFADisableResponse struct {
	Disabled bool `json:"disabled"`
}

type MFAStatusResponse struct {
	Enabled              bool `json:"enabled"`
	BackupCodesRemaining int  `json:"backupCodesRemaining"`
}

// ============================================================================
// Admin
// ============================================================================

type AuditEvent struct {
	ID        string            `json:"id"`
	Event     string            `json:"event"`
	ActorID   string            `json:"actorId,omitempty"`
	Email     string            `json:"email,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type AuditEventsResponse struct {
	Events []AuditEvent `json:"events"`
}

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
	Cache    string `json:"cache,omitempty"`
}

// details flattens an ozzo-validation result into field -> message. It
// returns nil when err is nil.
func details(err error) map[string]string {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		out := make(map[string]string, len(errs))
		for field, fieldErr := range errs {
			out[field] = fieldErr.Error()
		}
		return out
	}
	return map[string]string{"body": err.Error()}
}
