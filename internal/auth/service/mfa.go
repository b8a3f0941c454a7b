package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeBytes = 5 // 10 hex chars
	totpPeriod      = 30
	qrCodeSize      = 256
)

type MFAService struct {
	Store  store.Store
	Issuer string // shown by authenticator apps
	Audit  *Auditor
	Now    func() time.Time
}

// BeginSetup generates a new TOTP secret and backup codes for the user. MFA
// stays disabled until ConfirmSetup succeeds. Calling it again replaces the
// pending secret and every backup code.
func (s *MFAService) BeginSetup(ctx context.Context, userID string) (domain.MFASetup, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFASetup{}, mapStoreErr(err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Email,
		Period:      totpPeriod,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFASetup{}, fmt.Errorf("generate totp key: %w", err)
	}

	codes := make([]string, domain.BackupCodeCount)
	hashes := make([]string, domain.BackupCodeCount)
	for i := range codes {
		code, err := cryptox.GenerateHexCode(backupCodeBytes)
		if err != nil {
			return domain.MFASetup{}, err
		}
		codes[i] = code
		hashes[i] = cryptox.FingerprintToken(code)
	}

	qrCode, err := qrDataURL(key.URL())
	if err != nil {
		return domain.MFASetup{}, err
	}

	now := clock(s.Now).now()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().SetMFASecret(ctx, userID, key.Secret(), now); err != nil {
			return fmt.Errorf("store mfa secret: %w", err)
		}
		if err := tx.BackupCodes().ReplaceBackupCodes(ctx, userID, hashes, now); err != nil {
			return fmt.Errorf("store backup codes: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.MFASetup{}, mapStoreErr(err)
	}

	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditMFASetup, ActorID: userID})

	return domain.MFASetup{
		Secret:      key.Secret(),
		OTPAuthURL:  key.URL(),
		QRCode:      qrCode,
		BackupCodes: codes,
	}, nil
}

// ConfirmSetup enables MFA once the user proves their authenticator holds
// the pending secret.
func (s *MFAService) ConfirmSetup(ctx context.Context, userID, code string) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	if user.MFASecret == nil || *user.MFASecret == "" {
		return ErrMFANotSetup
	}

	if !s.validateTOTP(code, *user.MFASecret) {
		return ErrInvalidCode
	}

	// The secret guard fails when a concurrent setup replaced it.
	err = s.Store.Users().EnableMFA(ctx, userID, *user.MFASecret, clock(s.Now).now())
	if errors.Is(err, store.ErrNotFound) {
		return ErrMFANotSetup
	}
	if err != nil {
		return fmt.Errorf("enable mfa: %w", err)
	}

	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditMFAEnabled, ActorID: userID})
	return nil
}

// VerifyStepUp checks the second factor presented after a password login.
// Exactly one of cred.TOTP and cred.Backup must be set. A backup code is
// consumed by the check.
func (s *MFAService) VerifyStepUp(ctx context.Context, userID string, cred domain.StepUpCredential) error {
	totpCode := strings.TrimSpace(cred.TOTP)
	backup := strings.ToLower(strings.TrimSpace(cred.Backup))
	if (totpCode == "") == (backup == "") {
		return ErrInvalidCredentialKind
	}

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return mapStoreErr(err)
	}
	if !user.MFAEnabled || user.MFASecret == nil {
		return ErrMFANotSetup
	}

	if totpCode != "" {
		if !s.validateTOTP(totpCode, *user.MFASecret) {
			return ErrInvalidCode
		}
		return nil
	}

	ok, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, userID, cryptox.FingerprintToken(backup))
	if err != nil {
		return fmt.Errorf("consume backup code: %w", err)
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// Disable turns MFA off and drops the secret and backup codes. Disabling a
// user without MFA is a no-op.
func (s *MFAService) Disable(ctx context.Context, userID string) error {
	now := clock(s.Now).now()
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().DisableMFA(ctx, userID, now); err != nil {
			return err
		}
		return tx.BackupCodes().DeleteAllBackupCodes(ctx, userID)
	})
	if err != nil {
		return mapStoreErr(err)
	}

	s.Audit.Record(ctx, domain.AuditEvent{Type: domain.AuditMFADisabled, ActorID: userID})
	return nil
}

func (s *MFAService) RemainingBackupCodes(ctx context.Context, userID string) (int, error) {
	return s.Store.BackupCodes().CountUserBackupCodes(ctx, userID)
}

func (s *MFAService) Status(ctx context.Context, userID string) (domain.MFAStatus, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return domain.MFAStatus{}, mapStoreErr(err)
	}
	status := domain.MFAStatus{Enabled: user.MFAEnabled}
	if user.MFAEnabled {
		if status.BackupCodesRemaining, err = s.RemainingBackupCodes(ctx, userID); err != nil {
			return domain.MFAStatus{}, err
		}
	}
	return status, nil
}

// validateTOTP accepts the current step and one step either side.
func (s *MFAService) validateTOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, clock(s.Now).now(), totp.ValidateOpts{
		Period:    totpPeriod,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func qrDataURL(content string) (string, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	code, err = barcode.Scale(code, qrCodeSize, qrCodeSize)
	if err != nil {
		return "", fmt.Errorf("scale qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return "", fmt.Errorf("encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
