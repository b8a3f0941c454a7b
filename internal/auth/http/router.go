package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lecternhq/lectern/internal/auth/guard"
	"github.com/lecternhq/lectern/internal/auth/service"
	"github.com/lecternhq/lectern/internal/auth/store"
	"github.com/lecternhq/lectern/pkg/httpx"
	"github.com/lecternhq/lectern/pkg/jwtx"
	"github.com/lecternhq/lectern/pkg/slogx"

	_ "github.com/lecternhq/lectern/api/auth" // Swagger docs
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.SecretSet
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	gate         *guard.Gate

	AuthService  *service.AuthService
	MFAService   *service.MFAService
	TokenService *service.TokenService
	Auditor      *service.Auditor

	// Cache is checked by /readyz when set. Leave it nil when no cache is
	// configured.
	Cache Pinger
}

func NewRouter(
	keys *jwtx.SecretSet,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.ClientIP,
	}

	return r
}

// ApplyRoutes registers the route table. Services must be set first.
func (r *Router) ApplyRoutes() {
	r.gate = guard.NewGate(r.TokenService, r.Auditor)

	for _, rt := range r.routes() {
		// The gate runs before the limiter so per-user buckets see the
		// authenticated subject.
		r.Mux.Handle(rt.Pattern, httpx.Chain(rt.Handler,
			r.gate.Middleware(rt.Policy),
			rt.Limit,
		))
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Lectern Authentication Service API
//	@version		0.1.0
//	@description	Registration, email verification, password and TOTP login, and session tokens for the Lectern
//	@description	learning platform. Tokens are HS256 signed JWTs presented as bearer tokens.
//
//	@contact.name	Lectern Team
//	@contact.url	https://github.com/lecternhq/lectern
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token, or the MFA temp token for /auth/mfa/verify-login. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}
