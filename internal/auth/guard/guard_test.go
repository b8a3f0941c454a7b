package guard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// stubTokens accepts "<kind>:<user>:<role>" strings and treats anything in
// revoked as revoked.
type stubTokens struct {
	revoked map[string]bool
	lookErr error
}

func (s *stubTokens) Authenticate(_ context.Context, raw string, kind domain.TokenKind) (domain.Identity, error) {
	ids := map[string]domain.Identity{
		"access:u1:student":      {UserID: "u1", Role: domain.RoleStudent},
		"access:u2:admin":        {UserID: "u2", Role: domain.RoleAdmin},
		"pending_mfa:u1:student": {UserID: "u1", Role: domain.RoleStudent, MFAPending: true},
	}
	id, ok := ids[raw]
	if !ok {
		return domain.Identity{}, errors.New("bad signature")
	}
	if (kind == domain.TokenPendingMFA) != id.MFAPending {
		return domain.Identity{}, errors.New("wrong kind")
	}
	id.Token = raw
	return id, nil
}

func (s *stubTokens) IsRevoked(_ context.Context, raw string) (bool, error) {
	if s.lookErr != nil {
		return false, s.lookErr
	}
	return s.revoked[raw], nil
}

type recordingAuditor struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAuditor) Record(_ context.Context, e domain.AuditEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *recordingAuditor) last() domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return domain.AuditEvent{}
	}
	return a.events[len(a.events)-1]
}

func request(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func TestForKind(t *testing.T) {
	t.Parallel()

	tokens := &stubTokens{revoked: map[string]bool{"access:u2:admin": true}}
	access := ForKind(tokens, domain.TokenAccess)
	pending := ForKind(tokens, domain.TokenPendingMFA)

	tests := []struct {
		name  string
		guard Guard
		token string
		want  error
		user  string
	}{
		{"valid access", access, "access:u1:student", nil, "u1"},
		{"missing", access, "", ErrTokenMissing, ""},
		{"garbage", access, "nope", ErrTokenInvalid, ""},
		{"revoked", access, "access:u2:admin", ErrTokenRevoked, ""},
		{"pending rejected by access guard", access, "pending_mfa:u1:student", ErrTokenInvalid, ""},
		{"access rejected by pending guard", pending, "access:u1:student", ErrTokenInvalid, ""},
		{"pending accepted by pending guard", pending, "pending_mfa:u1:student", nil, "u1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.guard.Authenticate(request(tt.token))
			if tt.want != nil {
				require.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.user, id.UserID)
			require.Equal(t, tt.token, id.Token)
		})
	}
}

func TestNewRequiresIdentity(t *testing.T) {
	t.Parallel()

	g := New(BearerToken())
	_, err := g.Authenticate(request("anything"))
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestGate(t *testing.T) {
	t.Parallel()

	tokens := &stubTokens{}
	audit := &recordingAuditor{}
	gate := NewGate(tokens, audit)

	var seen domain.Identity
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		uid, _ := httpx.UserIDFromContext(r.Context())
		require.Equal(t, seen.UserID, uid)
		w.WriteHeader(http.StatusNoContent)
	})

	serve := func(p Policy, token string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		httpx.Chain(ok, gate.Middleware(p)).ServeHTTP(rec, request(token))
		return rec
	}

	t.Run("public bypasses", func(t *testing.T) {
		rec := serve(Policy{Public: true}, "")
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := serve(Policy{}, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
		require.Equal(t, domain.AuditUnauthorizedAccess, audit.last().Type)
		require.Equal(t, domain.ReasonNoUser, audit.last().Reason)
	})

	t.Run("invalid token", func(t *testing.T) {
		rec := serve(Policy{}, "forged")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, domain.ReasonPassportError, audit.last().Reason)
	})

	t.Run("authenticated", func(t *testing.T) {
		rec := serve(Policy{}, "access:u1:student")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Equal(t, "u1", seen.UserID)
	})

	t.Run("role denied", func(t *testing.T) {
		rec := serve(Policy{AllowedRoles: []domain.Role{domain.RoleAdmin}}, "access:u1:student")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, domain.AuditRBACDenied, audit.last().Type)
		require.Equal(t, "u1", audit.last().ActorID)
	})

	t.Run("role allowed", func(t *testing.T) {
		rec := serve(Policy{AllowedRoles: []domain.Role{domain.RoleAdmin}}, "access:u2:admin")
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("pending policy", func(t *testing.T) {
		rec := serve(Policy{Token: domain.TokenPendingMFA}, "pending_mfa:u1:student")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.True(t, seen.MFAPending)
	})
}

func TestGateRevokedToken(t *testing.T) {
	t.Parallel()

	tokens := &stubTokens{revoked: map[string]bool{"access:u1:student": true}}
	audit := &recordingAuditor{}
	gate := NewGate(tokens, audit)

	rec := httptest.NewRecorder()
	httpx.Chain(http.NotFoundHandler(), gate.Middleware(Policy{})).ServeHTTP(rec, request("access:u1:student"))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Session expired")
	require.Equal(t, domain.AuditBlacklistedToken, audit.last().Type)
}

func TestGateLookupFailureIsServerError(t *testing.T) {
	t.Parallel()

	tokens := &stubTokens{lookErr: errors.New("db down")}
	gate := NewGate(tokens, nil)

	rec := httptest.NewRecorder()
	httpx.Chain(http.NotFoundHandler(), gate.Middleware(Policy{})).ServeHTTP(rec, request("access:u1:student"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGatePanicsWithoutGuard(t *testing.T) {
	t.Parallel()

	gate := &Gate{Guards: map[domain.TokenKind]Guard{}}
	require.Panics(t, func() { gate.Middleware(Policy{}) })
}
