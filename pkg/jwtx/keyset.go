package jwtx

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
)

var (
	ErrNoKey      = errors.New("jwtx: key not found")
	ErrWeakSecret = errors.New("jwtx: signing secret must be at least 32 bytes")
)

// MinSecretLength is the shortest HS256 secret the service accepts.
const MinSecretLength = 32

// SecretSet holds the HMAC secrets the service signs and verifies with. The
// primary secret signs new tokens; previous secrets stay valid for
// verification until the tokens they signed have expired.
type SecretSet struct {
	mu      sync.RWMutex
	primary string
	secrets map[string][]byte // kid -> secret
}

// NewSecretSet builds a set with primary as the signing secret and previous as
// verification-only secrets.
func NewSecretSet(primary string, previous ...string) (*SecretSet, error) {
	s := &SecretSet{secrets: make(map[string][]byte, len(previous)+1)}
	for _, p := range previous {
		if p == "" {
			continue
		}
		if err := s.add(p); err != nil {
			return nil, err
		}
	}
	if err := s.Rotate(primary); err != nil {
		return nil, err
	}
	return s, nil
}

// KeyID derives the kid published in token headers from a secret. It is a
// truncated SHA-256 so the header never reveals secret material.
func KeyID(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:8])
}

// Rotate makes secret the primary signing secret. The old primary remains
// available for verification.
func (s *SecretSet) Rotate(secret string) error {
	if len(secret) < MinSecretLength {
		return ErrWeakSecret
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kid := KeyID(secret)
	s.secrets[kid] = []byte(secret)
	s.primary = kid
	return nil
}

// Retire drops a verification secret. The primary cannot be retired.
func (s *SecretSet) Retire(kid string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kid == s.primary {
		return
	}
	delete(s.secrets, kid)
}

func (s *SecretSet) add(secret string) error {
	if len(secret) < MinSecretLength {
		return ErrWeakSecret
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[KeyID(secret)] = []byte(secret)
	return nil
}

// Primary returns the signing kid and secret.
func (s *SecretSet) Primary() (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	secret, ok := s.secrets[s.primary]
	if !ok {
		return "", nil, ErrNoKey
	}
	return s.primary, secret, nil
}

// Get returns the secret for kid.
func (s *SecretSet) Get(kid string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if secret, ok := s.secrets[kid]; ok {
		return secret, nil
	}
	return nil, ErrNoKey
}

// Len returns the number of secrets accepted for verification.
func (s *SecretSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.secrets)
}
