package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/mail"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/lecternhq/lectern/pkg/idx"
	"github.com/lecternhq/lectern/pkg/jwtx"
	"github.com/lecternhq/lectern/pkg/slogx"
)

// AuthService runs the user facing flows: registration, verification,
// login with optional step-up, password reset and logout.
type AuthService struct {
	Store  store.Store
	Tokens *TokenService
	OTP    *OTPService
	MFA    *MFAService
	Mailer mail.Mailer
	Audit  *Auditor
	Now    func() time.Time
}

// LoginResult is either a full session or an MFA challenge.
type LoginResult struct {
	MFARequired bool
	TempToken   string

	Tokens domain.TokenPair
	User   domain.PublicUser
}

type VerifyOTPResult struct {
	Token string
	User  domain.PublicUser
}

// Register creates an unverified student and mails a verification code.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.PublicUser, error) {
	l := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return domain.PublicUser{}, ErrValidation
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	now := clock(s.Now).now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.PublicUser{}, ErrConflict
		}
		return domain.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditRegistered, ActorID: user.ID, Email: email})

	// The account exists either way; a failed issue is recovered by resend.
	if _, err := s.OTP.Issue(ctx, user.ID, domain.OTPVerification); err != nil {
		l.Error("failed to issue verification code", "user_id", user.ID, "error", err)
	}

	return user.Public(), nil
}

// VerifyOTP confirms the email address and doubles as the first login.
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) (VerifyOTPResult, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return VerifyOTPResult{}, ErrUnauthorized
	}
	if err != nil {
		return VerifyOTPResult{}, err
	}

	ok, err := s.OTP.Verify(ctx, user.ID, domain.OTPVerification, strings.TrimSpace(code))
	if err != nil {
		return VerifyOTPResult{}, err
	}
	if !ok {
		return VerifyOTPResult{}, ErrUnauthorized
	}
	user.EmailVerified = true

	s.sendMail(ctx, mail.VerifiedMessage(user.Email, user.Name))

	token, err := s.Tokens.IssueAccessToken(user.Identity())
	if err != nil {
		return VerifyOTPResult{}, err
	}
	return VerifyOTPResult{Token: token, User: user.Public()}, nil
}

// ResendVerification mails a new verification code. Unknown addresses get
// the same silent success as known ones.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.OTP.Resend(ctx, user.ID, domain.OTPVerification)
	return err
}

// Login checks the password. Unknown email and wrong password fail the same
// way and take the same time.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = domain.NormalizeEmail(email)

	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		_ = cryptox.VerifyDummy(password)
		s.loginFailed(ctx, "", email, domain.ReasonNoUser)
		return LoginResult{}, ErrUnauthorized
	}
	if err != nil {
		return LoginResult{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			return LoginResult{}, fmt.Errorf("verify password: %w", err)
		}
		s.loginFailed(ctx, user.ID, email, domain.ReasonBadPassword)
		return LoginResult{}, ErrUnauthorized
	}

	if !user.EmailVerified {
		s.loginFailed(ctx, user.ID, email, domain.ReasonUnverified)
		return LoginResult{}, ErrEmailNotVerified
	}

	if user.MFAEnabled {
		temp, err := s.Tokens.IssuePendingMFAToken(user.Identity())
		if err != nil {
			return LoginResult{}, err
		}
		return LoginResult{MFARequired: true, TempToken: temp}, nil
	}

	pair, err := s.Tokens.IssuePair(user.Identity())
	if err != nil {
		return LoginResult{}, err
	}
	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditLoginSuccess, ActorID: user.ID, Email: email})
	return LoginResult{Tokens: pair, User: user.Public()}, nil
}

// VerifyStepUpLogin completes a login that stopped at the MFA challenge. id
// comes from a verified pending-MFA token, which is revoked on success.
func (s *AuthService) VerifyStepUpLogin(ctx context.Context, id domain.Identity, cred domain.StepUpCredential) (LoginResult, error) {
	if err := s.MFA.VerifyStepUp(ctx, id.UserID, cred); err != nil {
		if errors.Is(err, ErrInvalidCredentialKind) {
			return LoginResult{}, err
		}
		if errors.Is(err, ErrInvalidCode) || errors.Is(err, ErrMFANotSetup) || errors.Is(err, ErrNotFound) {
			s.loginFailed(ctx, id.UserID, id.Email, domain.ReasonInvalidMFA)
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, id.UserID)
	if err != nil {
		return LoginResult{}, mapStoreErr(err)
	}

	pair, err := s.Tokens.IssuePair(user.Identity())
	if err != nil {
		return LoginResult{}, err
	}

	if id.Token != "" {
		if _, err := s.Tokens.Revoke(ctx, id.Token); err != nil {
			slogx.FromContext(ctx).Warn("failed to revoke pending mfa token", "user_id", user.ID, "error", err)
		}
	}

	s.Audit.Record(ctx, domain.AuditEvent{
		Type:     domain.AuditLoginSuccess,
		ActorID:  user.ID,
		Email:    user.Email,
		Metadata: map[string]string{"mfa": "true"},
	})
	return LoginResult{Tokens: pair, User: user.Public()}, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	pair, user, err := s.Tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}
	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditTokenRefreshed, ActorID: user.ID})
	return pair, nil
}

// Logout revokes the bearer token and, when given, the refresh token. An
// empty bearer is a no-op so clients can always call it. Only tokens this
// service signed are revoked; an expired bearer is already dead and is
// accepted without writing anything.
func (s *AuthService) Logout(ctx context.Context, bearer, refreshToken string) error {
	if bearer == "" {
		return nil
	}

	claims, err := s.Tokens.Verifier.Verify(bearer)
	switch {
	case errors.Is(err, jwtx.ErrExpired):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if _, err := s.Tokens.Revoke(ctx, bearer); err != nil {
		return err
	}
	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditTokenRevoked, ActorID: claims.Subject})

	if refreshToken == "" {
		return nil
	}

	l := slogx.FromContext(ctx)
	rc, err := s.Tokens.Verifier.Verify(refreshToken)
	switch {
	case err != nil:
		l.Warn("refresh token not revoked on logout", "user_id", claims.Subject, "error", err)
		return nil
	case !rc.IsRefresh() || rc.Subject != claims.Subject:
		l.Warn("refresh token not revoked on logout: not a refresh token of this user", "user_id", claims.Subject)
		return nil
	}

	if _, err := s.Tokens.Revoke(ctx, refreshToken); err != nil {
		l.Warn("failed to revoke refresh token on logout", "user_id", claims.Subject, "error", err)
		return nil
	}
	s.Audit.Record(ctx, domain.AuditEvent{
		Type:     domain.AuditTokenRevoked,
		ActorID:  claims.Subject,
		Metadata: map[string]string{"use": "refresh"},
	})
	return nil
}

// ForgotPassword mails a reset code. Unknown addresses succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	user, err := s.Store.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if _, err := s.OTP.Resend(ctx, user.ID, domain.OTPPasswordReset); err != nil {
		return err
	}
	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditPasswordResetRequested, ActorID: user.ID, Email: email})
	return nil
}

// ResetPassword consumes a reset code and stores the new password.
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if newPassword == "" {
		return ErrValidation
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}

	ok, err := s.OTP.Verify(ctx, user.ID, domain.OTPPasswordReset, strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Users().UpdatePasswordHash(ctx, user.ID, hash, clock(s.Now).now()); err != nil {
		return mapStoreErr(err)
	}

	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditPasswordReset, ActorID: user.ID, Email: user.Email})
	return nil
}

// Me returns the sanitized record of the authenticated user.
func (s *AuthService) Me(ctx context.Context, id domain.Identity) (domain.PublicUser, error) {
	user, err := s.Store.Users().GetUserByID(ctx, id.UserID)
	if err != nil {
		return domain.PublicUser{}, mapStoreErr(err)
	}
	return user.Public(), nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email, reason string) {
	s.Audit.Record(ctx, domain.AuditEvent{
		Type:    domain.AuditLoginFailed,
		ActorID: userID,
		Email:   email,
		Reason:  reason,
	})
}

func (s *AuthService) sendMail(ctx context.Context, msg mail.Message) {
	if s.Mailer == nil {
		return
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		slogx.FromContext(ctx).Error("failed to send email", "subject", msg.Subject, "error", err)
	}
}
