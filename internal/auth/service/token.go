package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/cryptox"
	"github.com/lecternhq/lectern/pkg/jwtx"
	"github.com/lecternhq/lectern/pkg/slogx"
)

const DefaultNegativeCacheTTL = 5 * time.Second

// RevocationCache fronts the revoked token list. Implementations may forget
// entries at any time; the store stays authoritative.
type RevocationCache interface {
	Lookup(ctx context.Context, tokenHash string) (revoked, found bool, err error)
	Remember(ctx context.Context, tokenHash string, revoked bool, ttl time.Duration) error
}

// TokenService mints, verifies and revokes bearer tokens.
type TokenService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Cache    RevocationCache // optional
	Issuer   string
	Now      func() time.Time

	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	PendingMFATTL    time.Duration
	NegativeCacheTTL time.Duration
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func (s *TokenService) issue(id domain.Identity, ttl time.Duration, mutate func(*jwtx.Claims)) (string, error) {
	claims := jwtx.NewClaims(id.UserID, id.Email, id.Role.String(), s.Issuer, ttl, clock(s.Now).now())
	if mutate != nil {
		mutate(&claims)
	}
	tok, err := s.Signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tok, nil
}

func (s *TokenService) IssueAccessToken(id domain.Identity) (string, error) {
	return s.issue(id, orDefault(s.AccessTTL, jwtx.DefaultAccessTokenTTL), nil)
}

func (s *TokenService) IssueRefreshToken(id domain.Identity) (string, error) {
	return s.issue(id, orDefault(s.RefreshTTL, jwtx.DefaultRefreshTokenTTL), func(c *jwtx.Claims) {
		c.Use = jwtx.UseRefresh
	})
}

// IssuePendingMFAToken mints the short-lived token handed out between the
// password check and the second factor.
func (s *TokenService) IssuePendingMFAToken(id domain.Identity) (string, error) {
	return s.issue(id, orDefault(s.PendingMFATTL, jwtx.DefaultPendingMFATokenTTL), func(c *jwtx.Claims) {
		c.MFA = true
	})
}

func (s *TokenService) IssuePair(id domain.Identity) (domain.TokenPair, error) {
	access, err := s.IssueAccessToken(id)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(id)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(orDefault(s.AccessTTL, jwtx.DefaultAccessTokenTTL).Seconds()),
	}, nil
}

// Authenticate verifies signature, expiry and issuer and checks the token is
// of the requested kind. It does not consult the revocation list.
func (s *TokenService) Authenticate(ctx context.Context, raw string, kind domain.TokenKind) (domain.Identity, error) {
	claims, err := s.Verifier.Verify(raw)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	var ok bool
	switch kind {
	case domain.TokenAccess:
		ok = !claims.IsRefresh() && !claims.IsPendingMFA()
	case domain.TokenRefresh:
		ok = claims.IsRefresh() && !claims.IsPendingMFA()
	case domain.TokenPendingMFA:
		ok = claims.IsPendingMFA() && !claims.IsRefresh()
	}
	if !ok {
		return domain.Identity{}, fmt.Errorf("%w: %w: want %s", ErrInvalidToken, ErrWrongTokenKind, kind)
	}

	return domain.Identity{
		UserID:     claims.Subject,
		Email:      claims.Email,
		Role:       domain.Role(claims.Role),
		MFAPending: claims.IsPendingMFA(),
		Token:      raw,
		ExpiresAt:  claims.Expiry(),
	}, nil
}

// Refresh trades a valid refresh token for a new pair. The old refresh token
// stays valid until it expires or is revoked.
func (s *TokenService) Refresh(ctx context.Context, raw string) (domain.TokenPair, domain.User, error) {
	id, err := s.Authenticate(ctx, raw, domain.TokenRefresh)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}

	revoked, err := s.isRevoked(ctx, cryptox.FingerprintToken(raw), id.ExpiresAt)
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	if revoked {
		return domain.TokenPair{}, domain.User{}, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	// Role and email come from the store, not the old claims.
	user, err := s.Store.Users().GetUserByID(ctx, id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.TokenPair{}, domain.User{}, fmt.Errorf("%w: subject gone", ErrInvalidToken)
	}
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}

	pair, err := s.IssuePair(user.Identity())
	if err != nil {
		return domain.TokenPair{}, domain.User{}, err
	}
	return pair, user, nil
}

// Revoke adds raw to the revocation list until its own expiry. The token is
// decoded without verification: any structurally valid token carrying exp
// can be revoked, and revoking twice is a no-op.
func (s *TokenService) Revoke(ctx context.Context, raw string) (domain.RevokedToken, error) {
	claims, err := jwtx.DecodeUnverified(raw)
	if err != nil {
		return domain.RevokedToken{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	now := clock(s.Now).now()
	rt := domain.RevokedToken{
		TokenHash: cryptox.FingerprintToken(raw),
		UserID:    claims.Subject,
		ExpiresAt: claims.Expiry(),
		RevokedAt: now,
	}
	if err := s.Store.RevokedTokens().RevokeToken(ctx, rt); err != nil {
		return domain.RevokedToken{}, fmt.Errorf("store revocation: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Remember(ctx, rt.TokenHash, true, rt.ExpiresAt.Sub(now)); err != nil {
			slogx.FromContext(ctx).Warn("failed to cache revocation", "error", err)
		}
	}
	return rt, nil
}

// IsRevoked reports whether raw is on the revocation list.
func (s *TokenService) IsRevoked(ctx context.Context, raw string) (bool, error) {
	var exp time.Time
	if claims, err := jwtx.DecodeUnverified(raw); err == nil {
		exp = claims.Expiry()
	}
	return s.isRevoked(ctx, cryptox.FingerprintToken(raw), exp)
}

func (s *TokenService) isRevoked(ctx context.Context, hash string, exp time.Time) (bool, error) {
	l := slogx.FromContext(ctx)

	if s.Cache != nil {
		revoked, found, err := s.Cache.Lookup(ctx, hash)
		switch {
		case err != nil:
			l.Warn("revocation cache lookup failed", "error", err)
		case found:
			return revoked, nil
		}
	}

	now := clock(s.Now).now()
	revoked, err := s.Store.RevokedTokens().IsTokenRevoked(ctx, hash, now)
	if err != nil {
		return false, fmt.Errorf("check revocation: %w", err)
	}

	if s.Cache != nil {
		ttl := orDefault(s.NegativeCacheTTL, DefaultNegativeCacheTTL)
		if revoked {
			ttl = exp.Sub(now)
		}
		if err := s.Cache.Remember(ctx, hash, revoked, ttl); err != nil {
			l.Warn("failed to cache revocation answer", "error", err)
		}
	}
	return revoked, nil
}
