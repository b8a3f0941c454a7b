package domain

import "time"

type AuditEventType string

const (
	AuditRegistered             AuditEventType = "REGISTERED"
	AuditOTPIssued              AuditEventType = "OTP_ISSUED"
	AuditOTPMailFailed          AuditEventType = "OTP_MAIL_FAILED"
	AuditOTPVerified            AuditEventType = "OTP_VERIFIED"
	AuditOTPFailed              AuditEventType = "OTP_FAILED"
	AuditLoginSuccess           AuditEventType = "LOGIN_SUCCESS"
	AuditLoginFailed            AuditEventType = "LOGIN_FAILED"
	AuditUnauthorizedAccess     AuditEventType = "UNAUTHORIZED_ACCESS"
	AuditBlacklistedToken       AuditEventType = "BLACKLISTED_TOKEN"
	AuditRBACDenied             AuditEventType = "RBAC_DENIED"
	AuditTokenRevoked           AuditEventType = "TOKEN_REVOKED"
	AuditTokenRefreshed         AuditEventType = "TOKEN_REFRESHED"
	AuditMFASetup               AuditEventType = "MFA_SETUP"
	AuditMFAEnabled             AuditEventType = "MFA_ENABLED"
	AuditMFADisabled            AuditEventType = "MFA_DISABLED"
	AuditPasswordResetRequested AuditEventType = "PASSWORD_RESET_REQUESTED"
	AuditPasswordReset          AuditEventType = "PASSWORD_RESET"
)

// Audit reasons recorded alongside rejections. They are for operators only
// and never returned to the caller.
const (
	ReasonNoUser        = "NO_USER"
	ReasonPassportError = "PASSPORT_ERROR"
	ReasonWrongTokenUse = "WRONG_TOKEN_KIND"
	ReasonRevoked       = "REVOKED"
	ReasonInvalidMFA    = "invalid_mfa"
	ReasonBadPassword   = "invalid_credentials"
	ReasonUnverified    = "email_not_verified"
	ReasonRoleMismatch  = "role_mismatch"
	ReasonInvalidOTP    = "invalid_otp"
)

type AuditEvent struct {
	ID        string            `json:"id"`
	Type      AuditEventType    `json:"event"`
	ActorID   string            `json:"actorId,omitempty"`
	Email     string            `json:"email,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}
