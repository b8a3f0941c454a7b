package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/httpx"
	"github.com/lecternhq/lectern/pkg/idx"
	"github.com/lecternhq/lectern/pkg/slogx"
)

// Auditor is the audit sink. Recording never fails from the caller's point
// of view: a store error is logged and dropped.
type Auditor struct {
	Store store.Store
	Now   func() time.Time
}

func (a *Auditor) Record(ctx context.Context, e domain.AuditEvent) {
	if a == nil {
		return
	}
	now := clock(a.Now).now()
	if e.ID == "" {
		e.ID = idx.NewAt(now).String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.IP == "" {
		e.IP = httpx.ClientIPFromContext(ctx)
	}

	l := slogx.FromContext(ctx)
	l.LogAttrs(ctx, auditLevel(e.Type), "audit_event",
		slog.String("event", string(e.Type)),
		slog.String("actor_id", e.ActorID),
		slog.String("reason", e.Reason),
		slog.String("ip", e.IP),
	)

	if a.Store == nil {
		return
	}
	if err := a.Store.AuditEvents().CreateAuditEvent(ctx, e); err != nil {
		l.Error("failed to persist audit event", "event", e.Type, "error", err)
	}
}

// List returns recorded events, newest first.
func (a *Auditor) List(ctx context.Context, f store.AuditFilter) ([]domain.AuditEvent, error) {
	return a.Store.AuditEvents().ListAuditEvents(ctx, f)
}

func auditLevel(t domain.AuditEventType) slog.Level {
	switch t {
	case domain.AuditLoginFailed, domain.AuditUnauthorizedAccess, domain.AuditBlacklistedToken,
		domain.AuditRBACDenied, domain.AuditOTPFailed, domain.AuditOTPMailFailed:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
