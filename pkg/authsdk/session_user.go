package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Me returns the authenticated account.
func (s *Session) Me(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var out MeResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout revokes the access token and the session's refresh token. The
// session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.RLock()
	access, refresh := s.accessToken, s.refreshToken
	s.mu.RUnlock()

	resp, err := s.client.doRequest(ctx, http.MethodPost, "/auth/logout", access, LogoutRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}

	var out MessageResponse
	return decodeJSON(resp, &out, http.StatusOK)
}

// AuditFilter narrows ListAuditEvents. Zero fields are not sent.
type AuditFilter struct {
	ActorID string
	Event   string
	Since   time.Time
	Limit   int
}

// ListAuditEvents reads the audit trail. Requires the admin role.
func (s *Session) ListAuditEvents(ctx context.Context, f AuditFilter) ([]AuditEvent, error) {
	q := url.Values{}
	if f.ActorID != "" {
		q.Set("actorId", f.ActorID)
	}
	if f.Event != "" {
		q.Set("event", f.Event)
	}
	if !f.Since.IsZero() {
		q.Set("since", f.Since.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}

	path := "/auth/admin/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var out AuditEventsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Events, nil
}
