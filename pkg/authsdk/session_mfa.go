package authsdk

import (
	"context"
	"net/http"
)

// SetupMFA starts TOTP enrollment. MFA stays off until ActivateMFA. The
// backup codes in the response are never shown again.
func (s *Session) SetupMFA(ctx context.Context) (*MFASetupResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/auth/mfa/setup", nil)
	if err != nil {
		return nil, err
	}

	var out MFASetupResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ActivateMFA confirms enrollment with a code from the authenticator app.
func (s *Session) ActivateMFA(ctx context.Context, code string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/auth/mfa/activate", MFATokenRequest{Token: code})
	if err != nil {
		return err
	}

	var out MFAActivateResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// DisableMFA turns MFA off and drops the remaining backup codes.
func (s *Session) DisableMFA(ctx context.Context) error {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/auth/mfa/disable", nil)
	if err != nil {
		return err
	}

	var out MFADisableResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// MFAStatus reports whether MFA is on and how many backup codes remain.
func (s *Session) MFAStatus(ctx context.Context) (*MFAStatusResponse, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/auth/mfa/status", nil)
	if err != nil {
		return nil, err
	}

	var out MFAStatusResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
