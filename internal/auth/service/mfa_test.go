package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestMFASetupAndConfirm(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")

	setup, err := h.mfa.BeginSetup(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.True(t, strings.HasPrefix(setup.OTPAuthURL, "otpauth://totp/"))
	require.True(t, strings.HasPrefix(setup.QRCode, "data:image/png;base64,"))
	require.Len(t, setup.BackupCodes, domain.BackupCodeCount)
	for _, c := range setup.BackupCodes {
		require.Len(t, c, 10)
	}

	status, err := h.mfa.Status(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled, "setup alone does not enable MFA")

	foreign := codeFromOtherSecret(t, setup.Secret, h.clock.Now())
	require.ErrorIs(t, h.mfa.ConfirmSetup(ctx, u.ID, foreign), ErrInvalidCode)

	status, err = h.mfa.Status(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled, "a failed confirm leaves MFA off")

	code, err := totp.GenerateCode(setup.Secret, h.clock.Now())
	require.NoError(t, err)
	require.NoError(t, h.mfa.ConfirmSetup(ctx, u.ID, code))

	status, err = h.mfa.Status(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.Equal(t, domain.BackupCodeCount, status.BackupCodesRemaining)
}

// codeFromOtherSecret returns a current code for a freshly generated secret,
// skipping the rare secret whose code collides with one secret accepts.
func codeFromOtherSecret(t *testing.T, secret string, now time.Time) string {
	t.Helper()

	accepted := map[string]bool{}
	for _, at := range []time.Time{now.Add(-30 * time.Second), now, now.Add(30 * time.Second)} {
		c, err := totp.GenerateCode(secret, at)
		require.NoError(t, err)
		accepted[c] = true
	}

	for {
		other, err := totp.Generate(totp.GenerateOpts{Issuer: "Lectern", AccountName: "other@example.com"})
		require.NoError(t, err)
		code, err := totp.GenerateCode(other.Secret(), now)
		require.NoError(t, err)
		if !accepted[code] {
			return code
		}
	}
}

func TestMFAConfirmWithoutSetup(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")

	require.ErrorIs(t, h.mfa.ConfirmSetup(context.Background(), u.ID, "123456"), ErrMFANotSetup)
}

func TestMFAStepUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")
	setup := enableMFA(t, h, u.ID)

	t.Run("exactly one credential", func(t *testing.T) {
		require.ErrorIs(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{}), ErrInvalidCredentialKind)
		require.ErrorIs(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{TOTP: "1", Backup: "2"}), ErrInvalidCredentialKind)
	})

	t.Run("totp within one step of skew", func(t *testing.T) {
		prev, err := totp.GenerateCode(setup.Secret, h.clock.Now().Add(-30*time.Second))
		require.NoError(t, err)
		require.NoError(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{TOTP: prev}))

		stale, err := totp.GenerateCode(setup.Secret, h.clock.Now().Add(-5*time.Minute))
		require.NoError(t, err)
		cur, err := totp.GenerateCode(setup.Secret, h.clock.Now())
		require.NoError(t, err)
		if stale != cur && stale != prev {
			require.ErrorIs(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{TOTP: stale}), ErrInvalidCode)
		}
	})

	t.Run("backup codes are single use", func(t *testing.T) {
		code := strings.ToUpper(setup.BackupCodes[3])
		require.NoError(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{Backup: " " + code + " "}))
		require.ErrorIs(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{Backup: code}), ErrInvalidCode)

		n, err := h.mfa.RemainingBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, domain.BackupCodeCount-1, n)
	})
}

func TestMFADisable(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")
	enableMFA(t, h, u.ID)

	require.NoError(t, h.mfa.Disable(ctx, u.ID))
	require.NoError(t, h.mfa.Disable(ctx, u.ID), "disable is idempotent")

	status, err := h.mfa.Status(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, status.Enabled)

	n, err := h.mfa.RemainingBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	require.ErrorIs(t, h.mfa.VerifyStepUp(ctx, u.ID, domain.StepUpCredential{TOTP: "123456"}), ErrMFANotSetup)
}

func enableMFA(t *testing.T, h *harness, userID string) domain.MFASetup {
	t.Helper()
	ctx := context.Background()

	setup, err := h.mfa.BeginSetup(ctx, userID)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Secret, h.clock.Now())
	require.NoError(t, err)
	require.NoError(t, h.mfa.ConfirmSetup(ctx, userID, code))
	return setup
}
