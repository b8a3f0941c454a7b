package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/mail"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/lecternhq/lectern/pkg/slogx"
)

const (
	OTPDigits                = 6
	DefaultOTPTTL            = 10 * time.Minute
	DefaultOTPResendInterval = 2 * time.Minute
)

// OTPService issues and checks the numeric codes used for email verification
// and password reset. Each purpose has a single pending code per user; every
// write is one conditional UPDATE so concurrent issue and verify calls see a
// consistent code.
type OTPService struct {
	Store  store.Store
	Mailer mail.Mailer
	Audit  *Auditor
	Now    func() time.Time

	TTL            time.Duration
	ResendInterval time.Duration
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultOTPTTL
	}
	return s.TTL
}

func (s *OTPService) resendInterval() time.Duration {
	if s.ResendInterval <= 0 {
		return DefaultOTPResendInterval
	}
	return s.ResendInterval
}

// Issue replaces any pending code for purpose with a fresh one and mails it.
func (s *OTPService) Issue(ctx context.Context, userID string, purpose domain.OTPPurpose) (string, error) {
	user, otp, err := s.prepare(ctx, userID, purpose)
	if err != nil {
		return "", err
	}

	if err := s.Store.Users().SetOTP(ctx, otp, clock(s.Now).now()); err != nil {
		return "", fmt.Errorf("store otp: %w", mapStoreErr(err))
	}

	s.deliver(ctx, user, otp)
	return otp.Code, nil
}

// Resend behaves like Issue but refuses while the pending code is younger
// than the resend interval.
func (s *OTPService) Resend(ctx context.Context, userID string, purpose domain.OTPPurpose) (string, error) {
	user, otp, err := s.prepare(ctx, userID, purpose)
	if err != nil {
		return "", err
	}

	now := clock(s.Now).now()
	threshold := now.Add(s.ttl() - s.resendInterval())
	ok, err := s.Store.Users().SetOTPIfIdle(ctx, otp, threshold, now)
	if err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	if !ok {
		return "", ErrRateLimited
	}

	s.deliver(ctx, user, otp)
	return otp.Code, nil
}

// Verify consumes the pending code when it matches and has not expired. A
// code verifies at most once.
func (s *OTPService) Verify(ctx context.Context, userID string, purpose domain.OTPPurpose, code string) (bool, error) {
	if !purpose.Valid() {
		return false, fmt.Errorf("%w: unknown otp purpose %q", ErrValidation, purpose)
	}

	ok, err := s.Store.Users().ConsumeOTP(ctx, userID, purpose, code, clock(s.Now).now())
	if err != nil {
		return false, fmt.Errorf("consume otp: %w", err)
	}

	event := domain.AuditEvent{
		Type:     domain.AuditOTPVerified,
		ActorID:  userID,
		Metadata: map[string]string{"purpose": string(purpose)},
	}
	if !ok {
		event.Type = domain.AuditOTPFailed
		event.Reason = domain.ReasonInvalidOTP
	}
	s.Audit.Record(ctx, event)
	return ok, nil
}

func (s *OTPService) prepare(ctx context.Context, userID string, purpose domain.OTPPurpose) (domain.User, domain.OTP, error) {
	if !purpose.Valid() {
		return domain.User{}, domain.OTP{}, fmt.Errorf("%w: unknown otp purpose %q", ErrValidation, purpose)
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, domain.OTP{}, mapStoreErr(err)
	}
	if purpose == domain.OTPVerification && user.EmailVerified {
		return domain.User{}, domain.OTP{}, ErrAlreadyVerified
	}

	code, err := cryptox.GenerateNumericCode(OTPDigits)
	if err != nil {
		return domain.User{}, domain.OTP{}, err
	}

	return user, domain.OTP{
		UserID:    user.ID,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: clock(s.Now).now().Add(s.ttl()),
	}, nil
}

// deliver mails the code. Failures are logged and audited, never returned.
func (s *OTPService) deliver(ctx context.Context, user domain.User, otp domain.OTP) {
	meta := map[string]string{"purpose": string(otp.Purpose)}
	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditOTPIssued, ActorID: user.ID, Metadata: meta})

	if s.Mailer == nil {
		return
	}
	msg := mail.OTPMessage(user.Email, purposeText(otp.Purpose), otp.Code, s.ttl())
	if err := s.Mailer.Send(ctx, msg); err != nil {
		slogx.FromContext(ctx).Error("failed to send otp email",
			"user_id", user.ID, "purpose", otp.Purpose, "error", err)
		s.Audit.Record(ctx, domain.AuditEvent{
			Type:     domain.AuditOTPMailFailed,
			ActorID:  user.ID,
			Email:    user.Email,
			Metadata: meta,
		})
	}
}

func purposeText(p domain.OTPPurpose) string {
	if p == domain.OTPPasswordReset {
		return "reset your password"
	}
	return "verify your email"
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrAlreadyExists):
		return ErrConflict
	}
	return err
}
