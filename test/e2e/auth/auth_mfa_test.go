package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// TestMFAEnrollmentAndLogin enrolls TOTP, completes step-up logins with a
// TOTP code and a backup code, and finally disables MFA.
func TestMFAEnrollmentAndLogin(t *testing.T) {
	c := setupAuthContainer(t)
	ctx := t.Context()
	email := "mfa@example.com"
	c.registerVerified(t, email)

	session := c.login(t, email, testPassword)

	setup, err := session.SetupMFA(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Base32)
	require.Contains(t, setup.OTPAuthURL, "otpauth://totp/")
	require.NotEmpty(t, setup.QRCode)
	require.Len(t, setup.BackupCodes, 8)

	status, err := session.MFAStatus(ctx)
	require.NoError(t, err)
	require.False(t, status.Enabled, "MFA stays off until activated")

	code, err := totp.GenerateCode(setup.Base32, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.ActivateMFA(ctx, code))

	// TOTP step-up.
	tempToken := loginExpectingMFA(t, c, email)
	code, err = totp.GenerateCode(setup.Base32, time.Now())
	require.NoError(t, err)
	mfaSession, err := c.Client.VerifyMFALogin(ctx, tempToken, code, "")
	require.NoError(t, err)
	require.True(t, mfaSession.User().MFAEnabled)

	_, err = c.Client.VerifyMFALogin(ctx, tempToken, code, "")
	assertAPIError(t, err, authsdk.ErrUnauthorized, "temp token reuse")

	// Backup code step-up, single use.
	backup := setup.BackupCodes[0]
	_, err = c.Client.VerifyMFALogin(ctx, loginExpectingMFA(t, c, email), "", backup)
	require.NoError(t, err)

	_, err = c.Client.VerifyMFALogin(ctx, loginExpectingMFA(t, c, email), "", backup)
	assertAPIError(t, err, authsdk.ErrUnauthorized, "backup code reuse")

	status, err = mfaSession.MFAStatus(ctx)
	require.NoError(t, err)
	require.True(t, status.Enabled)
	require.Equal(t, 7, status.BackupCodesRemaining)

	require.NoError(t, mfaSession.DisableMFA(ctx))
	c.login(t, email, testPassword)
}

// TestTempTokenIsNotAnAccessToken verifies the pending MFA token cannot be
// used on protected routes.
func TestTempTokenIsNotAnAccessToken(t *testing.T) {
	c := setupAuthContainer(t)
	ctx := t.Context()
	email := "pending@example.com"
	c.registerVerified(t, email)

	session := c.login(t, email, testPassword)
	setup, err := session.SetupMFA(ctx)
	require.NoError(t, err)
	code, err := totp.GenerateCode(setup.Base32, time.Now())
	require.NoError(t, err)
	require.NoError(t, session.ActivateMFA(ctx, code))

	tempToken := loginExpectingMFA(t, c, email)
	pending := c.Client.NewSessionFromTokens(tempToken, "", 300)

	_, err = pending.Me(ctx)
	assertAPIError(t, err, authsdk.ErrInvalidToken, "temp token on /auth/me")
}

func loginExpectingMFA(t *testing.T, c *authContainer, email string) string {
	t.Helper()

	_, err := c.Client.Login(t.Context(), email, testPassword)
	var mfaErr *authsdk.MFARequiredError
	require.True(t, errors.As(err, &mfaErr), "expected MFA challenge, got %v", err)
	require.NotEmpty(t, mfaErr.TempToken)
	return mfaErr.TempToken
}
