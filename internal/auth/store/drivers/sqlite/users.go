package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store/drivers/sqlite/gen"
)

type usersRepo struct {
	q *gen.Queries
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	err := r.q.CreateUser(ctx, gen.CreateUserParams{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Role:          u.Role.String(),
		EmailVerified: boolToInt(u.EmailVerified),
		CreatedAt:     toMillis(u.CreatedAt),
		UpdatedAt:     toMillis(u.UpdatedAt),
	})
	return mapUniqueViolation(err)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string, now time.Time) error {
	return requireRow(r.q.UpdateUserPasswordHash(ctx, gen.UpdateUserPasswordHashParams{
		PasswordHash: newHash,
		UpdatedAt:    toMillis(now),
		ID:           userID,
	}))
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	return requireRow(r.q.UpdateUserRole(ctx, gen.UpdateUserRoleParams{
		Role:      role.String(),
		UpdatedAt: toMillis(now),
		ID:        userID,
	}))
}

func (r *usersRepo) SoftDeleteUser(ctx context.Context, userID string, now time.Time) error {
	return requireRow(r.q.SoftDeleteUser(ctx, gen.SoftDeleteUserParams{
		DeletedAt: sql.NullInt64{Int64: toMillis(now), Valid: true},
		UpdatedAt: toMillis(now),
		ID:        userID,
	}))
}

func (r *usersRepo) SetOTP(ctx context.Context, otp domain.OTP, now time.Time) error {
	code := mapStringNull(otp.Code)
	expires := mapOptionalMillis(&otp.ExpiresAt)

	switch otp.Purpose {
	case domain.OTPVerification:
		return requireRow(r.q.SetVerificationOTP(ctx, gen.SetVerificationOTPParams{
			OtpCode:      code,
			OtpExpiresAt: expires,
			UpdatedAt:    toMillis(now),
			ID:           otp.UserID,
		}))
	case domain.OTPPasswordReset:
		return requireRow(r.q.SetResetOTP(ctx, gen.SetResetOTPParams{
			ResetOtpCode:      code,
			ResetOtpExpiresAt: expires,
			UpdatedAt:         toMillis(now),
			ID:                otp.UserID,
		}))
	}
	return fmt.Errorf("sqlite: unknown otp purpose %q", otp.Purpose)
}

func (r *usersRepo) SetOTPIfIdle(ctx context.Context, otp domain.OTP, threshold, now time.Time) (bool, error) {
	code := mapStringNull(otp.Code)
	expires := mapOptionalMillis(&otp.ExpiresAt)

	var (
		n   int64
		err error
	)
	switch otp.Purpose {
	case domain.OTPVerification:
		n, err = r.q.SetVerificationOTPIfIdle(ctx, gen.SetVerificationOTPIfIdleParams{
			OtpCode:      code,
			OtpExpiresAt: expires,
			UpdatedAt:    toMillis(now),
			ID:           otp.UserID,
			Threshold:    toMillis(threshold),
		})
	case domain.OTPPasswordReset:
		n, err = r.q.SetResetOTPIfIdle(ctx, gen.SetResetOTPIfIdleParams{
			ResetOtpCode:      code,
			ResetOtpExpiresAt: expires,
			UpdatedAt:         toMillis(now),
			ID:                otp.UserID,
			Threshold:         toMillis(threshold),
		})
	default:
		return false, fmt.Errorf("sqlite: unknown otp purpose %q", otp.Purpose)
	}
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *usersRepo) ConsumeOTP(
	ctx context.Context,
	userID string,
	purpose domain.OTPPurpose,
	code string,
	now time.Time,
) (bool, error) {
	if code == "" {
		return false, nil
	}

	var (
		n   int64
		err error
	)
	switch purpose {
	case domain.OTPVerification:
		n, err = r.q.ConsumeVerificationOTP(ctx, gen.ConsumeVerificationOTPParams{
			Now:  toMillis(now),
			ID:   userID,
			Code: mapStringNull(code),
		})
	case domain.OTPPasswordReset:
		n, err = r.q.ConsumeResetOTP(ctx, gen.ConsumeResetOTPParams{
			Now:  toMillis(now),
			ID:   userID,
			Code: mapStringNull(code),
		})
	default:
		return false, fmt.Errorf("sqlite: unknown otp purpose %q", purpose)
	}
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *usersRepo) SetMFASecret(ctx context.Context, userID, secret string, now time.Time) error {
	return requireRow(r.q.SetUserMFASecret(ctx, gen.SetUserMFASecretParams{
		MfaSecret: mapStringNull(secret),
		UpdatedAt: toMillis(now),
		ID:        userID,
	}))
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID, secret string, now time.Time) error {
	return requireRow(r.q.EnableUserMFA(ctx, gen.EnableUserMFAParams{
		UpdatedAt: toMillis(now),
		ID:        userID,
		Secret:    mapStringNull(secret),
	}))
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string, now time.Time) error {
	return requireRow(r.q.DisableUserMFA(ctx, gen.DisableUserMFAParams{
		UpdatedAt: toMillis(now),
		ID:        userID,
	}))
}
