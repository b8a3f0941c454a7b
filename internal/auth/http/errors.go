package http

import (
	"errors"
	"net/http"

	"github.com/lecternhq/lectern/internal/auth/service"
	"github.com/lecternhq/lectern/pkg/authsdk"
	"github.com/lecternhq/lectern/pkg/httpx"
	"github.com/lecternhq/lectern/pkg/slogx"
)

// writeServiceError maps a service error onto the public error body. The
// message is always generic; the precise cause is logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidCredentialKind):
		apiErr = authsdk.ErrValidation
	case errors.Is(err, service.ErrConflict):
		apiErr = authsdk.ErrConflict
	case errors.Is(err, service.ErrAlreadyVerified):
		apiErr = authsdk.ErrAlreadyVerified
	case errors.Is(err, service.ErrEmailNotVerified):
		apiErr = authsdk.ErrEmailNotVerified
	case errors.Is(err, service.ErrInvalidToken):
		apiErr = authsdk.ErrInvalidToken
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidCode),
		errors.Is(err, service.ErrMFANotSetup):
		apiErr = authsdk.ErrUnauthorized
	case errors.Is(err, service.ErrForbidden):
		apiErr = authsdk.ErrForbidden
	case errors.Is(err, service.ErrRateLimited):
		apiErr = authsdk.ErrRateLimited
	case errors.Is(err, service.ErrNotFound):
		apiErr = authsdk.ErrNotFound
	default:
		log.Error("request failed", "error", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	log.Debug("request rejected", "code", apiErr.Code, "error", err)
	if apiErr.StatusCode == http.StatusUnauthorized {
		httpx.SetBearerChallenge(w, apiErr.Message)
	}
	apiErr.WriteError(w)
}

// validatable is implemented by every authsdk request type.
type validatable interface {
	Validate() map[string]string
}

// decodeRequest reads and validates a JSON body. On failure it writes the
// 400 response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	if err := httpx.DecodeJSON(w, r, dst); err != nil {
		slogx.FromContext(r.Context()).Warn("failed to parse request", "error", err)
		authsdk.ErrInvalidBody.WriteError(w)
		return false
	}
	if details := dst.Validate(); details != nil {
		authsdk.NewValidationError(details).WriteError(w)
		return false
	}
	return true
}
