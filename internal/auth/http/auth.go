package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/lecternhq/lectern/internal/auth/guard"
	"github.com/lecternhq/lectern/internal/auth/service"
	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/lecternhq/lectern/pkg/httpx"
)

// AuthHandler serves registration, verification, login and password reset.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleRegister handles POST /auth/register
//
//	@Summary		Register an account
//	@Description	Creates an unverified student account and mails a six digit verification code.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest		true	"Account details"
//	@Success		201		{object}	authsdk.RegisterResponse
//	@Failure		400		{object}	authsdk.APIError	"Validation error"
//	@Failure		409		{object}	authsdk.APIError	"Email already registered"
//	@Failure		429		{object}	authsdk.APIError	"Rate limited"
//	@Router			/auth/register [post]
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{
		Message: "Registration successful. Check your email for the verification code.",
		User:    toUser(user),
	})
}

// HandleVerifyOTP handles POST /auth/verify-otp
//
//	@Summary		Verify email address
//	@Description	Consumes the verification code and returns an access token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyOTPRequest	true	"Email and code"
//	@Success		200		{object}	authsdk.VerifyOTPResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError	"Invalid or expired code"
//	@Router			/auth/verify-otp [post]
func (h *AuthHandler) HandleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyOTPRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.AuthService.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.VerifyOTPResponse{
		Token: res.Token,
		User:  toUser(res.User),
	})
}

// HandleResendOTP handles POST /auth/resend-otp
//
//	@Summary		Resend the verification code
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.EmailRequest	true	"Email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		409		{object}	authsdk.APIError	"Already verified"
//	@Failure		429		{object}	authsdk.APIError	"Previous code is too recent"
//	@Router			/auth/resend-otp [post]
func (h *AuthHandler) HandleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req authsdk.EmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.AuthService.ResendVerification(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "If the account exists, a new code has been sent.",
	})
}

// HandleLogin handles POST /auth/login
//
//	@Summary		Log in
//	@Description	Checks email and password. Accounts with MFA get {mfaRequired, tempToken} instead of tokens;
//	@Description	complete the login at /auth/mfa/verify-login.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.LoginResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError	"Invalid credentials or unverified email"
//	@Failure		429		{object}	authsdk.APIError
//	@Router			/auth/login [post]
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if res.MFARequired {
		httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
			MFARequired: true,
			TempToken:   res.TempToken,
		})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toLoginResponse(res.Tokens, res.User))
}

// HandleRefresh handles POST /auth/refresh
//
//	@Summary		Refresh tokens
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError
//	@Router			/auth/refresh [post]
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RefreshRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	pair, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// HandleLogout handles POST /auth/logout
//
//	@Summary		Log out
//	@Description	Revokes the bearer token and, when it belongs to the same user, the refresh token. Without a bearer token,
//	@Description	or with an expired one, it is a no-op.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.LogoutRequest	false	"Refresh token to revoke"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		401		{object}	authsdk.APIError	"Token not signed by this service"
//	@Router			/auth/logout [post]
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	// The body is optional.
	var req authsdk.LogoutRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		authsdk.ErrInvalidBody.WriteError(w)
		return
	}

	bearer, _ := httpx.BearerToken(r)
	if err := h.AuthService.Logout(r.Context(), bearer, req.RefreshToken); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Logged out"})
}

// HandleMe handles GET /auth/me
//
//	@Summary		Current user
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.MeResponse
//	@Failure		401	{object}	authsdk.APIError
//	@Failure		404	{object}	authsdk.APIError	"Account no longer exists"
//	@Router			/auth/me [get]
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := guard.IdentityFromContext(r.Context())

	user, err := h.AuthService.Me(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MeResponse{User: toUser(user)})
}

// HandleForgotPassword handles POST /auth/forgot-password
//
//	@Summary		Request a password reset code
//	@Description	Always succeeds for unknown addresses.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.EmailRequest	true	"Email"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		429		{object}	authsdk.APIError
//	@Router			/auth/forgot-password [post]
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.EmailRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{
		Message: "If the account exists, a reset code has been sent.",
	})
}

// HandleResetPassword handles POST /auth/reset-password
//
//	@Summary		Reset password
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.ResetPasswordRequest	true	"Email, code and new password"
//	@Success		200		{object}	authsdk.MessageResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError	"Invalid or expired code"
//	@Router			/auth/reset-password [post]
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	if err := h.AuthService.ResetPassword(r.Context(), req.Email, req.OTPCode, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.MessageResponse{Message: "Password updated"})
}
