package sqlite

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/internal/auth/store/drivers/sqlite/gen"
)

const defaultAuditLimit = 100

type auditEventsRepo struct {
	q *gen.Queries
}

func (r *auditEventsRepo) CreateAuditEvent(ctx context.Context, e domain.AuditEvent) error {
	meta := []byte("{}")
	if len(e.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return err
		}
	}

	return r.q.CreateAuditEvent(ctx, gen.CreateAuditEventParams{
		ID:        e.ID,
		Event:     string(e.Type),
		ActorID:   e.ActorID,
		Email:     e.Email,
		Reason:    e.Reason,
		Ip:        e.IP,
		Metadata:  string(meta),
		CreatedAt: toMillis(e.CreatedAt),
	})
}

func (r *auditEventsRepo) ListAuditEvents(ctx context.Context, f store.AuditFilter) ([]domain.AuditEvent, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	var since int64 = math.MinInt64
	if !f.Since.IsZero() {
		since = toMillis(f.Since)
	}

	rows, err := r.q.ListAuditEvents(ctx, gen.ListAuditEventsParams{
		ActorID: f.ActorID,
		Event:   string(f.Type),
		Since:   since,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, err
	}

	events := make([]domain.AuditEvent, 0, len(rows))
	for _, row := range rows {
		e, err := mapAuditEvent(row)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *auditEventsRepo) DeleteAuditEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	return r.q.DeleteAuditEventsBefore(ctx, toMillis(before))
}

func mapAuditEvent(row gen.AuditEvent) (domain.AuditEvent, error) {
	var meta map[string]string
	if row.Metadata != "" && row.Metadata != "{}" {
		if err := json.Unmarshal([]byte(row.Metadata), &meta); err != nil {
			return domain.AuditEvent{}, err
		}
	}
	return domain.AuditEvent{
		ID:        row.ID,
		Type:      domain.AuditEventType(row.Event),
		ActorID:   row.ActorID,
		Email:     row.Email,
		Reason:    row.Reason,
		IP:        row.Ip,
		Metadata:  meta,
		CreatedAt: fromMillis(row.CreatedAt),
	}, nil
}
