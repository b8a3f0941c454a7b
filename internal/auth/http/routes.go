package http

import (
	"net/http"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/internal/auth/guard"
	"github.com/lecternhq/lectern/pkg/httpx"
	httpSwagger "github.com/swaggo/http-swagger"
)

// route is one row of the route table. Every route names its policy; the
// gate consults nothing else.
type route struct {
	Pattern string
	Policy  guard.Policy
	Limit   httpx.Middleware
	Handler http.Handler
}

var (
	public     = guard.Policy{Public: true}
	accessOnly = guard.Policy{Token: domain.TokenAccess}
	pendingMFA = guard.Policy{Token: domain.TokenPendingMFA}
	adminOnly  = guard.Policy{Token: domain.TokenAccess, AllowedRoles: []domain.Role{domain.RoleAdmin}}
)

func (r *Router) routes() []route {
	auth := &AuthHandler{AuthService: r.AuthService}
	mfa := &MFAHandler{MFAService: r.MFAService, AuthService: r.AuthService}
	audit := &AuditHandler{Auditor: r.Auditor}

	// Credential endpoints are limited per IP and per submitted email so one
	// address cannot be hammered from many IPs without tripping the IP bucket.
	strictByEmail := func() httpx.Middleware {
		return httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "email")
	}

	return []route{
		{"POST /auth/register", public, strictByEmail(), http.HandlerFunc(auth.HandleRegister)},
		{"POST /auth/verify-otp", public, strictByEmail(), http.HandlerFunc(auth.HandleVerifyOTP)},
		{"POST /auth/resend-otp", public, strictByEmail(), http.HandlerFunc(auth.HandleResendOTP)},
		{"POST /auth/login", public, strictByEmail(), http.HandlerFunc(auth.HandleLogin)},
		{"POST /auth/refresh", public, httpx.RateLimitByIP(httpx.ModerateLimit), http.HandlerFunc(auth.HandleRefresh)},
		{"POST /auth/logout", public, httpx.RateLimitByIP(httpx.ModerateLimit), http.HandlerFunc(auth.HandleLogout)},
		{"POST /auth/forgot-password", public, strictByEmail(), http.HandlerFunc(auth.HandleForgotPassword)},
		{"POST /auth/reset-password", public, strictByEmail(), http.HandlerFunc(auth.HandleResetPassword)},

		{"GET /auth/me", accessOnly, httpx.RateLimitByUser(httpx.LenientLimit), http.HandlerFunc(auth.HandleMe)},

		{"POST /auth/mfa/setup", accessOnly, httpx.RateLimitByUser(httpx.ModerateLimit), http.HandlerFunc(mfa.HandleSetup)},
		{"POST /auth/mfa/activate", accessOnly, httpx.RateLimitByUser(httpx.StrictLimit), http.HandlerFunc(mfa.HandleActivate)},
		{"POST /auth/mfa/disable", accessOnly, httpx.RateLimitByUser(httpx.ModerateLimit), http.HandlerFunc(mfa.HandleDisable)},
		{"GET /auth/mfa/status", accessOnly, httpx.RateLimitByUser(httpx.LenientLimit), http.HandlerFunc(mfa.HandleStatus)},
		{"POST /auth/mfa/verify-login", pendingMFA, httpx.RateLimitByUser(httpx.StrictLimit), http.HandlerFunc(mfa.HandleVerifyLogin)},

		{"GET /auth/admin/audit", adminOnly, httpx.RateLimitByUser(httpx.ModerateLimit), http.HandlerFunc(audit.HandleList)},

		{"GET /livez", public, httpx.RateLimitByIP(httpx.PublicLimit), LivezHandler(r.startTime, r.buildVersion)},
		{"GET /readyz", public, httpx.RateLimitByIP(httpx.PublicLimit), ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys, r.Cache)},
		{"GET /swagger/", public, httpx.RateLimitByIP(httpx.PublicLimit), httpSwagger.Handler()},
	}
}
