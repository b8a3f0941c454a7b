package guard

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/lecternhq/lectern/pkg/httpx"
	"github.com/lecternhq/lectern/pkg/slogx"
)

// Policy is a route's entry in the route table.
type Policy struct {
	Public bool

	// Token is the kind of token the route accepts. The zero value is an
	// access token.
	Token domain.TokenKind

	// AllowedRoles restricts the route to these roles. Empty allows any
	// authenticated caller.
	AllowedRoles []domain.Role
}

// Auditor receives rejection events. The service audit sink implements it.
type Auditor interface {
	Record(ctx context.Context, e domain.AuditEvent)
}

// Gate builds the per-route middleware.
type Gate struct {
	Guards map[domain.TokenKind]Guard
	Audit  Auditor
}

// NewGate returns a Gate with the standard guard for access and pending-MFA
// tokens.
func NewGate(tokens TokenService, audit Auditor) *Gate {
	return &Gate{
		Guards: map[domain.TokenKind]Guard{
			domain.TokenAccess:     ForKind(tokens, domain.TokenAccess),
			domain.TokenPendingMFA: ForKind(tokens, domain.TokenPendingMFA),
		},
		Audit: audit,
	}
}

// Middleware enforces p. Public routes pass straight through. Otherwise the
// request must authenticate with the guard for p.Token, and the identity is
// attached to the context before the role check runs.
func (g *Gate) Middleware(p Policy) httpx.Middleware {
	if p.Public {
		return nil
	}

	g.mustHaveGuard(p.Token)
	requireRole := RequireRole(g.Audit, p.AllowedRoles...)

	return func(next http.Handler) http.Handler {
		inner := httpx.Chain(next, requireRole)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := g.Guards[p.Token].Authenticate(r)
			if err != nil {
				g.reject(w, r, err)
				return
			}

			ctx := WithIdentity(r.Context(), id)
			ctx = httpx.WithUserID(ctx, id.UserID)
			ctx = slogx.With(ctx, "user_id", id.UserID)
			inner.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (g *Gate) mustHaveGuard(kind domain.TokenKind) {
	if _, ok := g.Guards[kind]; !ok {
		panic("guard: no guard configured for " + kind.String() + " tokens")
	}
}

func (g *Gate) reject(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	event := domain.AuditEvent{
		Type:     domain.AuditUnauthorizedAccess,
		Metadata: map[string]string{"path": r.URL.Path, "method": r.Method},
	}

	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, ErrTokenMissing):
		event.Reason = domain.ReasonNoUser
		apiErr = authsdk.ErrAuthRequired
	case errors.Is(err, ErrTokenRevoked):
		event.Type = domain.AuditBlacklistedToken
		event.Reason = domain.ReasonRevoked
		apiErr = authsdk.ErrSessionExpired
	case errors.Is(err, ErrTokenInvalid):
		event.Reason = domain.ReasonPassportError
		apiErr = authsdk.ErrInvalidToken
	default:
		slogx.FromContext(ctx).Error("authentication failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	slogx.FromContext(ctx).Debug("request rejected", "reason", event.Reason, "error", err)
	if g.Audit != nil {
		g.Audit.Record(ctx, event)
	}

	httpx.SetBearerChallenge(w, apiErr.Message)
	apiErr.WriteError(w)
}

// RequireRole rejects callers whose role is not in roles with 403 and an
// RBAC_DENIED audit event. With no roles it allows everyone. It must run
// after the identity is attached.
func RequireRole(audit Auditor, roles ...domain.Role) httpx.Middleware {
	if len(roles) == 0 {
		return nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.SetBearerChallenge(w, authsdk.ErrAuthRequired.Message)
				authsdk.ErrAuthRequired.WriteError(w)
				return
			}

			if !slices.Contains(roles, id.Role) {
				if audit != nil {
					audit.Record(r.Context(), domain.AuditEvent{
						Type:     domain.AuditRBACDenied,
						ActorID:  id.UserID,
						Email:    id.Email,
						Reason:   domain.ReasonRoleMismatch,
						Metadata: map[string]string{"path": r.URL.Path, "role": string(id.Role)},
					})
				}
				authsdk.ErrForbidden.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
