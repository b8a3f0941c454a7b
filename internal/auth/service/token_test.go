package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lecternhq/lectern/internal/auth/domain"
	rediscache "github.com/lecternhq/lectern/internal/auth/store/drivers/redis"
	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/lecternhq/lectern/pkg/jwtx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

var ada = domain.Identity{UserID: "01HZX0000000000000000000AD", Email: "ada@example.com", Role: domain.RoleStudent}

func TestTokenKinds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	access, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)
	refresh, err := h.tokens.IssueRefreshToken(ada)
	require.NoError(t, err)
	pending, err := h.tokens.IssuePendingMFAToken(ada)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		kind  domain.TokenKind
		ok    bool
	}{
		{"access as access", access, domain.TokenAccess, true},
		{"refresh as access", refresh, domain.TokenAccess, false},
		{"pending as access", pending, domain.TokenAccess, false},
		{"refresh as refresh", refresh, domain.TokenRefresh, true},
		{"access as refresh", access, domain.TokenRefresh, false},
		{"pending as pending", pending, domain.TokenPendingMFA, true},
		{"access as pending", access, domain.TokenPendingMFA, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := h.tokens.Authenticate(ctx, tt.token, tt.kind)
			if !tt.ok {
				require.ErrorIs(t, err, ErrInvalidToken)
				require.ErrorIs(t, err, ErrWrongTokenKind)
				return
			}
			require.NoError(t, err)
			require.Equal(t, ada.UserID, id.UserID)
			require.Equal(t, ada.Email, id.Email)
			require.Equal(t, ada.Role, id.Role)
			require.Equal(t, tt.kind == domain.TokenPendingMFA, id.MFAPending)
			require.Equal(t, tt.token, id.Token)
		})
	}
}

func TestTokenTTLs(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	now := h.clock.Now()

	for _, tt := range []struct {
		issue func(domain.Identity) (string, error)
		ttl   time.Duration
	}{
		{h.tokens.IssueAccessToken, time.Hour},
		{h.tokens.IssueRefreshToken, 7 * 24 * time.Hour},
		{h.tokens.IssuePendingMFAToken, 5 * time.Minute},
	} {
		tok, err := tt.issue(ada)
		require.NoError(t, err)
		claims, err := jwtx.DecodeUnverified(tok)
		require.NoError(t, err)
		require.Equal(t, now.Add(tt.ttl).Unix(), claims.Expiry().Unix())
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	tok, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)

	h.clock.Advance(time.Hour + time.Minute)
	_, err = h.tokens.Authenticate(context.Background(), tok, domain.TokenAccess)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestTokensIssuedInSameSecondDiffer(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	a, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)
	b, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	tok, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)
	other, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)

	revoked, err := h.tokens.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.False(t, revoked)

	rt, err := h.tokens.Revoke(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, ada.UserID, rt.UserID)
	require.Equal(t, cryptox.FingerprintToken(tok), rt.TokenHash)

	_, err = h.tokens.Revoke(ctx, tok)
	require.NoError(t, err, "revoking twice is a no-op")

	revoked, err = h.tokens.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)

	revoked, err = h.tokens.IsRevoked(ctx, other)
	require.NoError(t, err)
	require.False(t, revoked)

	_, err = h.tokens.Revoke(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeRequiresExp(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	claims := jwtx.NewClaims(ada.UserID, ada.Email, "student", "lectern-test", time.Hour, h.clock.Now())
	claims.ExpiresAt = nil
	tok, err := h.tokens.Signer.Sign(claims)
	require.NoError(t, err)

	_, err = h.tokens.Revoke(context.Background(), tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)
	u := h.verifiedUser(t, "ada@example.com", "correct horse battery")
	id := domain.Identity{UserID: u.ID, Email: u.Email, Role: u.Role}

	pair, err := h.tokens.IssuePair(id)
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.EqualValues(t, 3600, pair.ExpiresIn)

	t.Run("access token cannot refresh", func(t *testing.T) {
		_, _, err := h.tokens.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("picks up role changes", func(t *testing.T) {
		require.NoError(t, h.store.Users().UpdateRole(ctx, u.ID, domain.RoleInstructor, h.clock.Now()))

		next, user, err := h.tokens.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, u.ID, user.ID)

		got, err := h.tokens.Authenticate(ctx, next.AccessToken, domain.TokenAccess)
		require.NoError(t, err)
		require.Equal(t, domain.RoleInstructor, got.Role)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		_, err := h.tokens.Revoke(ctx, pair.RefreshToken)
		require.NoError(t, err)
		_, _, err = h.tokens.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		fresh, err := h.tokens.IssueRefreshToken(id)
		require.NoError(t, err)
		require.NoError(t, h.store.Users().SoftDeleteUser(ctx, u.ID, h.clock.Now()))
		_, _, err = h.tokens.Refresh(ctx, fresh)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRevocationCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h := newHarness(t)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cache := rediscache.NewWithClient(client)
	h.tokens.Cache = cache

	tok, err := h.tokens.IssueAccessToken(ada)
	require.NoError(t, err)
	hash := cryptox.FingerprintToken(tok)

	revoked, err := h.tokens.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.False(t, revoked)

	_, found, err := cache.Lookup(ctx, hash)
	require.NoError(t, err)
	require.True(t, found, "negative answer is cached")
	require.InDelta(t, DefaultNegativeCacheTTL.Seconds(), mr.TTL("lectern:revoked:"+hash).Seconds(), 1)

	// Revoke overwrites the negative entry so the cache never hides it.
	_, err = h.tokens.Revoke(ctx, tok)
	require.NoError(t, err)
	revoked, err = h.tokens.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)

	// A cache outage falls back to the store.
	mr.Close()
	revoked, err = h.tokens.IsRevoked(ctx, tok)
	require.NoError(t, err)
	require.True(t, revoked)
}
