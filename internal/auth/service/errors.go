package service

import (
	"errors"
	"time"
)

// Sentinels returned by the auth services. Handlers map them to status codes
// with errors.Is; wrapped causes are for logs only.
var (
	ErrValidation            = errors.New("validation_error")
	ErrConflict              = errors.New("conflict")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrEmailNotVerified      = errors.New("email_not_verified")
	ErrForbidden             = errors.New("forbidden")
	ErrRateLimited           = errors.New("rate_limited")
	ErrNotFound              = errors.New("not_found")
	ErrInvalidToken          = errors.New("invalid_token")
	ErrInvalidCode           = errors.New("invalid_code")
	ErrAlreadyVerified       = errors.New("already_verified")
	ErrMFANotSetup           = errors.New("mfa_not_setup")
	ErrInvalidCredentialKind = errors.New("invalid_credential_kind")

	// ErrWrongTokenKind is joined with ErrInvalidToken when a valid token is
	// presented where another kind is required.
	ErrWrongTokenKind = errors.New("wrong_token_kind")
)

type clock func() time.Time

func (c clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}
