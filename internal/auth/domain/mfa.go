package domain

// BackupCodeCount is how many backup codes each MFA setup generates.
const BackupCodeCount = 8

// MFASetup is returned once, when setup begins. The backup codes are never
// retrievable again in clear text.
type MFASetup struct {
	Secret      string   `json:"base32"`
	OTPAuthURL  string   `json:"otpauthUrl"`
	QRCode      string   `json:"qrCode"` // data:image/png;base64,...
	BackupCodes []string `json:"backupCodes"`
}

// StepUpCredential carries exactly one second factor.
type StepUpCredential struct {
	TOTP   string
	Backup string
}

// MFAStatus summarises a user's second factor for the account page.
type MFAStatus struct {
	Enabled              bool `json:"enabled"`
	BackupCodesRemaining int  `json:"backupCodesRemaining"`
}
