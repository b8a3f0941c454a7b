package authsdk

import (
	"context"
	"fmt"
	"net/http"
)

// MFARequiredError is returned by Login when the account has MFA enabled.
// Complete the login with VerifyMFALogin using TempToken.
type MFARequiredError struct {
	TempToken string
}

func (e *MFARequiredError) Error() string {
	return "mfa required"
}

// Register creates an unverified account. A verification code is mailed to
// the address.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return nil, err
	}

	var out RegisterResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP confirms the email address with the mailed code and returns an
// access token for the now verified account.
func (c *SDKClient) VerifyOTP(ctx context.Context, email, otp string) (*VerifyOTPResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/verify-otp", "", VerifyOTPRequest{Email: email, OTP: otp})
	if err != nil {
		return nil, err
	}

	var out VerifyOTPResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP asks for a new verification code.
func (c *SDKClient) ResendOTP(ctx context.Context, email string) error {
	return c.postMessage(ctx, "/auth/resend-otp", EmailRequest{Email: email})
}

// ForgotPassword asks for a password reset code.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	return c.postMessage(ctx, "/auth/forgot-password", EmailRequest{Email: email})
}

// ResetPassword sets a new password using a reset code.
func (c *SDKClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	return c.postMessage(ctx, "/auth/reset-password", req)
}

// Login authenticates with email and password. When MFA is enabled the
// returned error is a *MFARequiredError.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/login", "", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out.MFARequired {
		return nil, &MFARequiredError{TempToken: out.TempToken}
	}
	return newSessionFromLogin(c, out)
}

// VerifyMFALogin completes a login that stopped at the MFA challenge. Pass
// exactly one of totp or backup.
func (c *SDKClient) VerifyMFALogin(ctx context.Context, tempToken, totp, backup string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/mfa/verify-login", tempToken,
		MFAVerifyLoginRequest{Token: totp, Backup: backup})
	if err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSessionFromLogin(c, out)
}

// Refresh exchanges a refresh token for a new pair.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	var out TokenResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *SDKClient) postMessage(ctx context.Context, path string, body any) error {
	resp, err := c.doRequest(ctx, http.MethodPost, path, "", body)
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

func newSessionFromLogin(c *SDKClient, out LoginResponse) (*Session, error) {
	if out.AccessToken == "" {
		return nil, fmt.Errorf("login response carried no access token")
	}
	s := newSession(c, TokenResponse{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		TokenType:    out.TokenType,
		ExpiresIn:    out.ExpiresIn,
	})
	if out.User != nil {
		s.user = *out.User
	}
	return s, nil
}
