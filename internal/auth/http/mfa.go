package http

import (
	"net/http"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/guard"
	"github.com/lecternhq/lectern/internal/auth/service"
	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/lecternhq/lectern/pkg/httpx"
)

// MFAHandler handles TOTP enrollment and the step-up half of login.
type MFAHandler struct {
	MFAService  *service.MFAService
	AuthService *service.AuthService
}

// HandleSetup handles POST /auth/mfa/setup
//
//	@Summary		Begin TOTP setup
//	@Description	Generates a TOTP secret, QR code and eight backup codes. MFA stays off until /auth/mfa/activate.
//	@Description	Calling it again replaces the pending secret and every backup code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFASetupResponse	"Secret, QR code and backup codes (shown once)"
//	@Failure		401	{object}	authsdk.APIError
//	@Router			/auth/mfa/setup [post]
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	id, _ := guard.IdentityFromContext(r.Context())

	setup, err := h.MFAService.BeginSetup(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFASetupResponse{
		OTPAuthURL:  setup.OTPAuthURL,
		Base32:      setup.Secret,
		QRCode:      setup.QRCode,
		BackupCodes: setup.BackupCodes,
	})
}

// HandleActivate handles POST /auth/mfa/activate
//
//	@Summary		Activate TOTP
//	@Description	Enables MFA once a code from the authenticator matches the pending secret.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFATokenRequest		true	"TOTP code"
//	@Success		200		{object}	authsdk.MFAActivateResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError	"Invalid code or no pending setup"
//	@Router			/auth/mfa/activate [post]
func (h *MFAHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFATokenRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id, _ := guard.IdentityFromContext(r.Context())

	if err := h.MFAService.ConfirmSetup(r.Context(), id.UserID, req.Token); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAActivateResponse{Enabled: true})
}

// HandleVerifyLogin handles POST /auth/mfa/verify-login
//
//	@Summary		Complete an MFA login
//	@Description	Takes the tempToken from /auth/login as the bearer token and exactly one of a TOTP code or a
//	@Description	backup code. Backup codes are single use. The temp token is spent on success.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.MFAVerifyLoginRequest	true	"TOTP or backup code"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError
//	@Router			/auth/mfa/verify-login [post]
func (h *MFAHandler) HandleVerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.MFAVerifyLoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	id, _ := guard.IdentityFromContext(r.Context())

	res, err := h.AuthService.VerifyStepUpLogin(r.Context(), id, domain.StepUpCredential{
		TOTP:   req.Token,
		Backup: req.Backup,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(res.Tokens, res.User))
}

// HandleDisable handles POST /auth/mfa/disable
//
//	@Summary		Disable MFA
//	@Description	Clears the secret and backup codes. Idempotent.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFADisableResponse
//	@Failure		401	{object}	authsdk.APIError
//	@Router			/auth/mfa/disable [post]
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	id, _ := guard.IdentityFromContext(r.Context())

	if err := h.MFAService.Disable(r.Context(), id.UserID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFADisableResponse{Disabled: true})
}

// HandleStatus handles GET /auth/mfa/status
//
//	@Summary		MFA status
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MFAStatusResponse
//	@Failure		401	{object}	authsdk.APIError
//	@Router			/auth/mfa/status [get]
func (h *MFAHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := guard.IdentityFromContext(r.Context())

	status, err := h.MFAService.Status(r.Context(), id.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MFAStatusResponse{
		Enabled:              status.Enabled,
		BackupCodesRemaining: status.BackupCodesRemaining,
	})
}
