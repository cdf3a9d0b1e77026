package security

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// GenerateTOTPSecret provisions a new authenticator-app secret. The
// returned URL is the otpauth:// payload rendered as a QR code by the
// client.
func GenerateTOTPSecret(issuer, accountName string) (secret string, provisioningURL string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: accountName,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTP accepts codes one 30s step either side of now to absorb
// clock drift; two steps out is rejected.
func ValidateTOTP(code, secret string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// TOTPCodeAt generates the code for an arbitrary instant. Used by tests
// and by nothing on the request path.
func TOTPCodeAt(secret string, at time.Time) (string, error) {
	return totp.GenerateCode(secret, at)
}
