package domain

import "time"

// Identity is the subject a token speaks for, attached to the request context
// once the guard accepts the token.
type Identity struct {
	UserID string
	Email  string
	Role   Role

	// MFAPending marks an identity established from a pending-MFA token.
	MFAPending bool

	// Token is the raw bearer string and ExpiresAt its exp claim; logout
	// needs both to revoke it.
	Token     string
	ExpiresAt time.Time
}

// TokenKind selects which tokens a guard accepts.
type TokenKind int

const (
	TokenAccess TokenKind = iota
	TokenRefresh
	TokenPendingMFA
)

func (k TokenKind) String() string {
	switch k {
	case TokenRefresh:
		return "refresh"
	case TokenPendingMFA:
		return "pending_mfa"
	default:
		return "access"
	}
}

// TokenPair is what login, step-up and refresh hand back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // always "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // seconds until the access token expires
}

// RevokedToken is an entry of the revocation list. TokenHash is the SHA-256
// fingerprint of the raw token string.
type RevokedToken struct {
	TokenHash string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
