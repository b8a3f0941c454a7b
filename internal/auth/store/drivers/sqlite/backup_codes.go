package sqlite

import (
	"context"
	"time"

	"github.com/lecternhq/lectern/internal/auth/store/drivers/sqlite/gen"
)

type backupCodesRepo struct {
	q *gen.Queries
}

// ReplaceBackupCodes is not atomic on its own; callers run it inside WithTx.
func (r *backupCodesRepo) ReplaceBackupCodes(ctx context.Context, userID string, hashes []string, now time.Time) error {
	if err := r.q.DeleteAllBackupCodes(ctx, userID); err != nil {
		return err
	}
	for i, h := range hashes {
		err := r.q.CreateBackupCode(ctx, gen.CreateBackupCodeParams{
			UserID:    userID,
			Position:  int64(i),
			CodeHash:  h,
			CreatedAt: toMillis(now),
		})
		if err != nil {
			return mapUniqueViolation(err)
		}
	}
	return nil
}

func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error) {
	n, err := r.q.ConsumeBackupCode(ctx, gen.ConsumeBackupCodeParams{
		UserID:   userID,
		CodeHash: codeHash,
	})
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, userID string) error {
	return r.q.DeleteAllBackupCodes(ctx, userID)
}

func (r *backupCodesRepo) CountUserBackupCodes(ctx context.Context, userID string) (int, error) {
	count, err := r.q.CountUserBackupCodes(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
