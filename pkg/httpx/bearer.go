package httpx

import (
	"net/http"
	"strings"
)

// BearerToken extracts the raw token from an "Authorization: Bearer <token>"
// header. The scheme match is case-insensitive per RFC 6750.
func BearerToken(r *http.Request) (string, bool) {
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(authz[len("Bearer "):])
	if raw == "" {
		return "", false
	}
	return raw, true
}

// SetBearerChallenge sets the RFC 6750 WWW-Authenticate header for a rejected
// bearer token. desc must be generic; it is visible to the caller.
func SetBearerChallenge(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
}
