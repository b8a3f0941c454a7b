package store

import (
	"context"
	"errors"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose one sub-repository per table so a transaction can only be opened from
// the root, never from inside another transaction.
type Store interface {
	Users() Users
	BackupCodes() BackupCodes
	RevokedTokens() RevokedTokens
	AuditEvents() AuditEvents

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn inside a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a live (not soft-deleted) user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks a live user up by normalized email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user. A duplicate live email yields ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string, now time.Time) error

	UpdateRole(ctx context.Context, userID string, role domain.Role, now time.Time) error

	// SoftDeleteUser marks the user deleted; every lookup skips it afterwards.
	SoftDeleteUser(ctx context.Context, userID string, now time.Time) error

	// SetOTP overwrites the code pair for purpose unconditionally.
	SetOTP(ctx context.Context, otp domain.OTP, now time.Time) error

	// SetOTPIfIdle overwrites the code pair only when the pending code expires
	// at or before threshold. It reports whether the row was written.
	SetOTPIfIdle(ctx context.Context, otp domain.OTP, threshold, now time.Time) (bool, error)

	// ConsumeOTP clears the pair when code matches and has not expired. For
	// the verification purpose it also marks the email verified. It reports
	// whether a code was consumed.
	ConsumeOTP(ctx context.Context, userID string, purpose domain.OTPPurpose, code string, now time.Time) (bool, error)

	// SetMFASecret stores a pending TOTP secret and turns MFA off until it
	// is confirmed.
	SetMFASecret(ctx context.Context, userID, secret string, now time.Time) error

	// EnableMFA activates MFA only if secret is still the pending one.
	EnableMFA(ctx context.Context, userID, secret string, now time.Time) error

	// DisableMFA clears the secret and disables MFA.
	DisableMFA(ctx context.Context, userID string, now time.Time) error
}

type BackupCodes interface {
	// ReplaceBackupCodes drops every code for the user and stores hashes in order.
	ReplaceBackupCodes(ctx context.Context, userID string, hashes []string, now time.Time) error

	// ConsumeBackupCode deletes the matching code and reports whether one existed.
	ConsumeBackupCode(ctx context.Context, userID, codeHash string) (bool, error)

	DeleteAllBackupCodes(ctx context.Context, userID string) error

	// CountUserBackupCodes returns the number of unused backup codes for a user.
	CountUserBackupCodes(ctx context.Context, userID string) (int, error)
}

type RevokedTokens interface {
	// RevokeToken records a revocation. Revoking twice is a no-op.
	RevokeToken(ctx context.Context, t domain.RevokedToken) error

	// IsTokenRevoked reports whether an unexpired revocation exists for hash.
	IsTokenRevoked(ctx context.Context, tokenHash string, now time.Time) (bool, error)

	// DeleteExpiredRevokedTokens is housekeeping; returns rows removed.
	DeleteExpiredRevokedTokens(ctx context.Context, now time.Time) (int64, error)
}

// AuditFilter narrows ListAuditEvents. Zero fields match everything.
type AuditFilter struct {
	ActorID string
	Type    domain.AuditEventType
	Since   time.Time
	Limit   int
}

type AuditEvents interface {
	CreateAuditEvent(ctx context.Context, e domain.AuditEvent) error

	// ListAuditEvents returns matching events, newest first.
	ListAuditEvents(ctx context.Context, f AuditFilter) ([]domain.AuditEvent, error)

	// DeleteAuditEventsBefore is housekeeping; returns rows removed.
	DeleteAuditEventsBefore(ctx context.Context, before time.Time) (int64, error)
}
