package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/service"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/lecternhq/lectern/pkg/httpx"
)

const maxAuditLimit = 500

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	Auditor *service.Auditor
}

// HandleList handles GET /auth/admin/audit
//
//	@Summary		List audit events
//	@Description	Newest first. Requires the admin role.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			actorId	query		string	false	"Only events for this user id"
//	@Param			event	query		string	false	"Only this event type, e.g. LOGIN_FAILED"
//	@Param			since	query		string	false	"RFC 3339 lower bound"
//	@Param			limit	query		int		false	"Maximum events (1-500, default 100)"
//	@Success		200		{object}	authsdk.AuditEventsResponse
//	@Failure		400		{object}	authsdk.APIError
//	@Failure		401		{object}	authsdk.APIError
//	@Failure		403		{object}	authsdk.APIError
//	@Router			/auth/admin/audit [get]
func (h *AuditHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.AuditFilter{
		ActorID: q.Get("actorId"),
		Type:    domain.AuditEventType(q.Get("event")),
	}
	details := map[string]string{}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			details["since"] = "must be an RFC 3339 timestamp"
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxAuditLimit {
			details["limit"] = "must be between 1 and 500"
		}
		filter.Limit = n
	}
	if len(details) > 0 {
		authsdk.NewValidationError(details).WriteError(w)
		return
	}

	events, err := h.Auditor.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := authsdk.AuditEventsResponse{Events: make([]authsdk.AuditEvent, len(events))}
	for i, e := range events {
		out.Events[i] = toAuditEvent(e)
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
