package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/lecternhq/lectern/internal/auth/store"
)

const (
	DefaultHousekeepingInterval = 15 * time.Minute
	DefaultAuditRetention       = 90 * 24 * time.Hour
)

// HousekeepingService periodically deletes revocation entries for tokens that
// have expired anyway and audit events past their retention.
type HousekeepingService struct {
	Store          store.Store
	Logger         *slog.Logger
	Interval       time.Duration
	AuditRetention time.Duration
	Now            func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval falls back to DefaultHousekeepingInterval.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}

	return &HousekeepingService{
		Store:          store,
		Logger:         logger,
		Interval:       interval,
		AuditRetention: DefaultAuditRetention,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure in one does not
// stop the others. It returns how many steps succeeded.
func (s *HousekeepingService) Cleanup(ctx context.Context) int {
	now := clock(s.Now).now()
	s.Logger.Debug("starting housekeeping cleanup")

	succeeded := 0

	if n, err := s.Store.RevokedTokens().DeleteExpiredRevokedTokens(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired revoked tokens", "error", err)
	} else {
		s.Logger.Debug("deleted expired revoked tokens", "rows", n)
		succeeded++
	}

	retention := s.AuditRetention
	if retention <= 0 {
		retention = DefaultAuditRetention
	}
	if n, err := s.Store.AuditEvents().DeleteAuditEventsBefore(ctx, now.Add(-retention)); err != nil {
		s.Logger.Error("failed to delete old audit events", "error", err)
	} else {
		s.Logger.Debug("deleted old audit events", "rows", n)
		succeeded++
	}

	s.Logger.Info("housekeeping cleanup completed", "successful_cleanups", succeeded)
	return succeeded
}
