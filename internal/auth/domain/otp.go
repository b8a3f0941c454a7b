package domain

import "time"

// OTPPurpose selects which code pair an OTP operation works on.
type OTPPurpose string

const (
	OTPVerification  OTPPurpose = "verification"
	OTPPasswordReset OTPPurpose = "password_reset"
)

func (p OTPPurpose) Valid() bool {
	return p == OTPVerification || p == OTPPasswordReset
}

// OTP is a freshly issued code. It only ever exists in memory on the way to
// the mailer.
type OTP struct {
	UserID    string
	Purpose   OTPPurpose
	Code      string
	ExpiresAt time.Time
}
