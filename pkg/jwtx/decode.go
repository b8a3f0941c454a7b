package jwtx

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeUnverified parses the token structure and claims without checking the
// signature or any time based claim. Only use it where the caller does not
// trust the result for authentication, e.g. reading exp to size a revocation
// record.
func DecodeUnverified(tokenStr string) (Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.ExpiresAt == nil {
		return Claims{}, ErrMissingExp
	}
	return claims, nil
}
