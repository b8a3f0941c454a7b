package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
}

// HS256Signer signs with the primary secret of a SecretSet.
type HS256Signer struct {
	keys *SecretSet
}

// NewSignerHS256 returns a signer that always uses the current primary secret,
// so a rotation takes effect for the next token without rebuilding services.
func NewSignerHS256(keys *SecretSet) (*HS256Signer, error) {
	if keys == nil {
		return nil, errors.New("jwtx: nil secret set")
	}
	if _, _, err := keys.Primary(); err != nil {
		return nil, err
	}
	return &HS256Signer{keys: keys}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) KID() string {
	kid, _, _ := s.keys.Primary()
	return kid
}

// Sign produces a compact HS256 token with the primary kid in the header.
func (s *HS256Signer) Sign(c Claims) (string, error) {
	kid, secret, err := s.keys.Primary()
	if err != nil {
		return "", err
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	tok.Header["kid"] = kid
	return tok.SignedString(secret)
}
