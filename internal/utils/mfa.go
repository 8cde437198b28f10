package utils

import (
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// MFAConfig holds configuration for officer TOTP enrollment
type MFAConfig struct {
	Issuer     string
	Period     uint
	Digits     otp.Digits
	Algorithm  otp.Algorithm
	SecretSize uint
}

// DefaultMFAConfig returns the default MFA configuration
func DefaultMFAConfig() MFAConfig {
	return MFAConfig{
		Issuer:     "DouanesNC",
		Period:     30,
		Digits:     otp.DigitsSix,
		Algorithm:  otp.AlgorithmSHA1,
		SecretSize: 20,
	}
}

// MFAKey represents a provisioned TOTP key
type MFAKey struct {
	Secret string
	URL    string
}

// GenerateTOTPKey generates a new TOTP key for an account
func GenerateTOTPKey(config MFAConfig, accountName string) (*MFAKey, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      config.Issuer,
		AccountName: accountName,
		Period:      config.Period,
		SecretSize:  config.SecretSize,
		Digits:      config.Digits,
		Algorithm:   config.Algorithm,
	})
	if err != nil {
		return nil, err
	}

	return &MFAKey{
		Secret: key.Secret(),
		URL:    key.URL(),
	}, nil
}

// ValidateTOTPCode checks a TOTP code against the stored secret
func ValidateTOTPCode(code, secret string) bool {
	return totp.Validate(code, secret)
}
