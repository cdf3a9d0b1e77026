package models

import "time"

// CSRFToken is bound to an authenticated user, an anonymous browser
// session, or both. Issuing a new token supersedes any prior token for
// either binding.
type CSRFToken struct {
	ID               string
	Token            string
	UserID           *string
	BrowserSessionID *string
	CreatedAt        time.Time
	ExpiresAt        time.Time
}

type OTPPurpose string

const (
	OTPPurposeEmailVerification OTPPurpose = "email_verification"
	OTPPurposeTwoFactor         OTPPurpose = "two_factor"
	OTPPurposeTwoFactorDisable  OTPPurpose = "2fa_disable"
	OTPPurposePasswordReset     OTPPurpose = "password_reset"
)

// OTP is a short-lived single-use code or opaque token. Consumption
// deletes every outstanding OTP for the same (user, purpose) pair.
type OTP struct {
	ID        string
	UserID    string
	Email     string
	Code      string
	Purpose   OTPPurpose
	CreatedAt time.Time
	ExpiresAt time.Time
}
