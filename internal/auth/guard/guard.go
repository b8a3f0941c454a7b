// Package guard is the single enforcement point for protected routes. A
// Guard turns a request into an Identity by running a fixed list of stages;
// Gate wraps handlers with a guard chosen by the route's Policy.
package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/lecternhq/lectern/internal/auth/domain"
	"github.com/lecternhq/lectern/pkg/httpx"
)

var (
	// ErrTokenMissing means no bearer token was presented.
	ErrTokenMissing = errors.New("guard: token missing")

	// ErrTokenInvalid covers bad signatures, expiry, the wrong token kind and
	// malformed tokens alike.
	ErrTokenInvalid = errors.New("guard: token invalid")

	// ErrTokenRevoked means the token verified but is on the revocation list.
	ErrTokenRevoked = errors.New("guard: token revoked")
)

// Guard authenticates a request.
type Guard interface {
	Authenticate(r *http.Request) (domain.Identity, error)
}

// Attempt is the state threaded through the stages of one authentication.
type Attempt struct {
	Raw      string
	Identity domain.Identity
}

// Stage is one step of authentication. It reads and fills in a, and returns
// an error to stop the chain.
type Stage func(r *http.Request, a *Attempt) error

// Func adapts a plain function to Guard.
type Func func(r *http.Request) (domain.Identity, error)

func (f Func) Authenticate(r *http.Request) (domain.Identity, error) { return f(r) }

// New composes stages into a Guard. Stages run in order and the first error
// wins.
func New(stages ...Stage) Guard {
	return Func(func(r *http.Request) (domain.Identity, error) {
		var a Attempt
		for _, stage := range stages {
			if err := stage(r, &a); err != nil {
				return domain.Identity{}, err
			}
		}
		if a.Identity.UserID == "" {
			return domain.Identity{}, ErrTokenInvalid
		}
		return a.Identity, nil
	})
}

// Authenticator verifies a raw token for one kind. The token service
// implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string, kind domain.TokenKind) (domain.Identity, error)
}

// RevocationChecker reports whether a raw token has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, raw string) (bool, error)
}

// BearerToken extracts the Authorization bearer token.
func BearerToken() Stage {
	return func(r *http.Request, a *Attempt) error {
		raw, ok := httpx.BearerToken(r)
		if !ok {
			return ErrTokenMissing
		}
		a.Raw = raw
		return nil
	}
}

// Verify checks signature, expiry and kind.
func Verify(tokens Authenticator, kind domain.TokenKind) Stage {
	return func(r *http.Request, a *Attempt) error {
		id, err := tokens.Authenticate(r.Context(), a.Raw, kind)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTokenInvalid, err)
		}
		a.Identity = id
		return nil
	}
}

// NotRevoked rejects tokens on the revocation list. A lookup failure is
// returned as is and treated as a server error by Gate.
func NotRevoked(checker RevocationChecker) Stage {
	return func(r *http.Request, a *Attempt) error {
		revoked, err := checker.IsRevoked(r.Context(), a.Raw)
		if err != nil {
			return fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return ErrTokenRevoked
		}
		return nil
	}
}

// TokenService is what ForKind needs from the token service.
type TokenService interface {
	Authenticator
	RevocationChecker
}

// ForKind is the standard guard: bearer extraction, verification for kind,
// then the revocation check.
func ForKind(tokens TokenService, kind domain.TokenKind) Guard {
	return New(BearerToken(), Verify(tokens, kind), NotRevoked(tokens))
}

type ctxKey struct{}

// WithIdentity attaches id to ctx.
func WithIdentity(ctx context.Context, id domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IdentityFromContext returns the identity attached by Gate.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(domain.Identity)
	return id, ok && id.UserID != ""
}
