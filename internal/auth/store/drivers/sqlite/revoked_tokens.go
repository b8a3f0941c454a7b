package sqlite

import (
	"context"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store/drivers/sqlite/gen"
)

type revokedTokensRepo struct {
	q *gen.Queries
}

func (r *revokedTokensRepo) RevokeToken(ctx context.Context, t domain.RevokedToken) error {
	return r.q.InsertRevokedToken(ctx, gen.InsertRevokedTokenParams{
		TokenHash: t.TokenHash,
		UserID:    t.UserID,
		ExpiresAt: toMillis(t.ExpiresAt),
		RevokedAt: toMillis(t.RevokedAt),
	})
}

func (r *revokedTokensRepo) IsTokenRevoked(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	count, err := r.q.IsTokenRevoked(ctx, gen.IsTokenRevokedParams{
		TokenHash: tokenHash,
		Now:       toMillis(now),
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *revokedTokensRepo) DeleteExpiredRevokedTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredRevokedTokens(ctx, toMillis(now))
}
