package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndVerify(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	u, err := h.auth.Register(ctx, "  Alice ", " Alice@X.com ", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", u.Email)
	require.Equal(t, "Alice", u.Name)
	require.Equal(t, domain.RoleStudent, u.Role)
	require.False(t, u.IsEmailVerified)

	_, err = h.auth.Register(ctx, "Alice", "ALICE@x.com", "another password")
	require.ErrorIs(t, err, ErrConflict)

	_, err = h.auth.VerifyOTP(ctx, "alice@x.com", "000000x")
	require.ErrorIs(t, err, ErrUnauthorized)

	res, err := h.auth.VerifyOTP(ctx, "alice@x.com", h.lastCode(t, "alice@x.com"))
	require.NoError(t, err)
	require.True(t, res.User.IsEmailVerified)

	id, err := h.tokens.Authenticate(ctx, res.Token, domain.TokenAccess)
	require.NoError(t, err)
	require.Equal(t, u.ID, id.UserID)

	msg, ok := h.mailer.Last("alice@x.com")
	require.True(t, ok)
	require.Contains(t, msg.Subject, "verified")

	_, err = h.auth.VerifyOTP(ctx, "nobody@x.com", "123456")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterRejectsBlankFields(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	_, err := h.auth.Register(context.Background(), " ", "a@x.com", "pw")
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")

	t.Run("success", func(t *testing.T) {
		res, err := h.auth.Login(ctx, "ADA@example.com", "correct horse battery")
		require.NoError(t, err)
		require.False(t, res.MFARequired)
		require.Equal(t, u.ID, res.User.ID)

		id, err := h.tokens.Authenticate(ctx, res.Tokens.AccessToken, domain.TokenAccess)
		require.NoError(t, err)
		require.Equal(t, u.ID, id.UserID)
	})

	t.Run("uniform failures", func(t *testing.T) {
		_, errWrong := h.auth.Login(ctx, "ada@example.com", "wrong")
		_, errUnknown := h.auth.Login(ctx, "nobody@example.com", "wrong")
		require.ErrorIs(t, errWrong, ErrUnauthorized)
		require.ErrorIs(t, errUnknown, ErrUnauthorized)
		require.Equal(t, errWrong.Error(), errUnknown.Error())
	})

	t.Run("unverified", func(t *testing.T) {
		_, err := h.auth.Register(ctx, "Bob", "bob@example.com", "hunter2hunter2")
		require.NoError(t, err)
		_, err = h.auth.Login(ctx, "bob@example.com", "hunter2hunter2")
		require.ErrorIs(t, err, ErrEmailNotVerified)
	})

	events, err := h.audit.List(ctx, store.AuditFilter{Type: domain.AuditLoginFailed})
	require.NoError(t, err)
	reasons := map[string]bool{}
	for _, e := range events {
		reasons[e.Reason] = true
	}
	require.True(t, reasons[domain.ReasonNoUser])
	require.True(t, reasons[domain.ReasonBadPassword])
	require.True(t, reasons[domain.ReasonUnverified])
}

func TestLoginWithMFA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")
	setup := enableMFA(t, h, u.ID)

	res, err := h.auth.Login(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	require.True(t, res.MFARequired)
	require.NotEmpty(t, res.TempToken)
	require.Empty(t, res.Tokens.AccessToken)

	_, err = h.tokens.Authenticate(ctx, res.TempToken, domain.TokenAccess)
	require.ErrorIs(t, err, ErrInvalidToken, "pending token must not pass as access")

	pending, err := h.tokens.Authenticate(ctx, res.TempToken, domain.TokenPendingMFA)
	require.NoError(t, err)

	_, err = h.auth.VerifyStepUpLogin(ctx, pending, domain.StepUpCredential{TOTP: "abcdef"})
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = h.auth.VerifyStepUpLogin(ctx, pending, domain.StepUpCredential{})
	require.ErrorIs(t, err, ErrInvalidCredentialKind)

	code, err := totp.GenerateCode(setup.Secret, h.clock.Now())
	require.NoError(t, err)
	done, err := h.auth.VerifyStepUpLogin(ctx, pending, domain.StepUpCredential{TOTP: code})
	require.NoError(t, err)
	require.Equal(t, u.ID, done.User.ID)
	require.True(t, done.User.MFAEnabled)

	revoked, err := h.tokens.IsRevoked(ctx, res.TempToken)
	require.NoError(t, err)
	require.True(t, revoked, "the pending token is spent")

	events, err := h.audit.List(ctx, store.AuditFilter{ActorID: u.ID, Type: domain.AuditLoginSuccess, Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "true", events[0].Metadata["mfa"])
}

func TestStepUpWithBackupCode(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")
	setup := enableMFA(t, h, u.ID)

	login := func() domain.Identity {
		res, err := h.auth.Login(ctx, "ada@example.com", "correct horse battery")
		require.NoError(t, err)
		id, err := h.tokens.Authenticate(ctx, res.TempToken, domain.TokenPendingMFA)
		require.NoError(t, err)
		return id
	}

	_, err := h.auth.VerifyStepUpLogin(ctx, login(), domain.StepUpCredential{Backup: setup.BackupCodes[0]})
	require.NoError(t, err)

	_, err = h.auth.VerifyStepUpLogin(ctx, login(), domain.StepUpCredential{Backup: setup.BackupCodes[0]})
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.verifiedUser(t, "ada@example.com", "correct horse battery")

	res, err := h.auth.Login(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx, "", ""))
	require.ErrorIs(t, h.auth.Logout(ctx, "garbage", ""), ErrInvalidToken)

	require.NoError(t, h.auth.Logout(ctx, res.Tokens.AccessToken, res.Tokens.RefreshToken))
	require.NoError(t, h.auth.Logout(ctx, res.Tokens.AccessToken, ""), "logout is idempotent")

	for _, tok := range []string{res.Tokens.AccessToken, res.Tokens.RefreshToken} {
		revoked, err := h.tokens.IsRevoked(ctx, tok)
		require.NoError(t, err)
		require.True(t, revoked)
	}

	_, err = h.auth.Refresh(ctx, res.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutOnlyRevokesGenuineTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("forged bearer", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)

		forged := forgedToken(t, "victim-admin-id", time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC))
		require.ErrorIs(t, h.auth.Logout(ctx, forged, ""), ErrInvalidToken)

		revoked, err := h.tokens.IsRevoked(ctx, forged)
		require.NoError(t, err)
		require.False(t, revoked)
		require.NotContains(t, h.auditTypes(t), domain.AuditTokenRevoked)
	})

	t.Run("expired bearer is a no-op", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.verifiedUser(t, "ada@example.com", "correct horse battery")
		res, err := h.auth.Login(ctx, "ada@example.com", "correct horse battery")
		require.NoError(t, err)

		h.clock.Advance(2 * time.Hour)
		require.NoError(t, h.auth.Logout(ctx, res.Tokens.AccessToken, ""))
		require.NotContains(t, h.auditTypes(t), domain.AuditTokenRevoked)
	})

	t.Run("foreign refresh token is left alone", func(t *testing.T) {
		t.Parallel()
		h := newHarness(t)
		h.verifiedUser(t, "ada@example.com", "correct horse battery")
		h.verifiedUser(t, "bob@example.com", "correct horse battery")
		ada, err := h.auth.Login(ctx, "ada@example.com", "correct horse battery")
		require.NoError(t, err)
		bob, err := h.auth.Login(ctx, "bob@example.com", "correct horse battery")
		require.NoError(t, err)

		require.NoError(t, h.auth.Logout(ctx, ada.Tokens.AccessToken, bob.Tokens.RefreshToken))

		revoked, err := h.tokens.IsRevoked(ctx, bob.Tokens.RefreshToken)
		require.NoError(t, err)
		require.False(t, revoked)

		revoked, err = h.tokens.IsRevoked(ctx, ada.Tokens.AccessToken)
		require.NoError(t, err)
		require.True(t, revoked)
	})
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	h.verifiedUser(t, "ada@example.com", "correct horse battery")

	require.NoError(t, h.auth.ForgotPassword(ctx, "nobody@example.com"), "no existence oracle")

	require.NoError(t, h.auth.ForgotPassword(ctx, "ada@example.com"))
	code := h.lastCode(t, "ada@example.com")

	require.ErrorIs(t, h.auth.ForgotPassword(ctx, "ada@example.com"), ErrRateLimited)

	require.ErrorIs(t, h.auth.ResetPassword(ctx, "ada@example.com", "000000x", "new password 1"), ErrUnauthorized)
	require.ErrorIs(t, h.auth.ResetPassword(ctx, "nobody@example.com", code, "new password 1"), ErrUnauthorized)
	require.NoError(t, h.auth.ResetPassword(ctx, "ada@example.com", code, "new password 1"))
	require.ErrorIs(t, h.auth.ResetPassword(ctx, "ada@example.com", code, "new password 2"), ErrUnauthorized)

	_, err := h.auth.Login(ctx, "ada@example.com", "correct horse battery")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = h.auth.Login(ctx, "ada@example.com", "new password 1")
	require.NoError(t, err)

	require.Contains(t, h.auditTypes(t), domain.AuditPasswordReset)
}

func TestResendVerification(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.auth.Register(ctx, "Bob", "bob@example.com", "hunter2hunter2")
	require.NoError(t, err)

	require.ErrorIs(t, h.auth.ResendVerification(ctx, "bob@example.com"), ErrRateLimited)
	h.clock.Advance(2 * time.Minute)
	require.NoError(t, h.auth.ResendVerification(ctx, "bob@example.com"))
	require.NoError(t, h.auth.ResendVerification(ctx, "nobody@example.com"))

	_, err = h.auth.VerifyOTP(ctx, "bob@example.com", h.lastCode(t, "bob@example.com"))
	require.NoError(t, err)
	require.ErrorIs(t, h.auth.ResendVerification(ctx, "bob@example.com"), ErrAlreadyVerified)
}

func TestMe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")

	got, err := h.auth.Me(ctx, domain.Identity{UserID: u.ID})
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)

	_, err = h.auth.Me(ctx, domain.Identity{UserID: "gone"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPublicUserHasNoSecrets(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")
	enableMFA(t, h, u.ID)

	got, err := h.auth.Me(context.Background(), domain.Identity{UserID: u.ID})
	require.NoError(t, err)
	dump := strings.ToLower(toJSON(t, got))
	require.NotContains(t, dump, "argon2")
	require.NotContains(t, dump, "secret")
	require.NotContains(t, dump, "password")
}
