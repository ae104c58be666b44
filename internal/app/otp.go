package app

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// DefaultOTPDigits is the code length used when none is configured.
const DefaultOTPDigits = 6

// GenerateOTP returns a fixed-length numeric code drawn uniformly from the
// full range of the given digit count, leading zeros preserved. The code is
// read from the operating system's CSPRNG so previous outputs reveal nothing
// about the next one.
func GenerateOTP(digits int) (string, error) {
	if digits <= 0 {
		digits = DefaultOTPDigits
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate OTP: %w", err)
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// OTPPolicy decides whether a submitted code may skip validation. The policy
// is chosen once at startup so the bypass is a single auditable gate rather
// than a string comparison buried in validation logic.
type OTPPolicy struct {
	allowBypass bool
	bypassCode  string
}

// StrictOTPPolicy accepts no bypass code. This is the only policy that should
// ever run outside development.
func StrictOTPPolicy() OTPPolicy {
	return OTPPolicy{}
}

// DevBypassOTPPolicy accepts the reserved code without validation.
func DevBypassOTPPolicy(code string) OTPPolicy {
	return OTPPolicy{allowBypass: code != "", bypassCode: code}
}

// IsBypass reports whether the submitted code is the reserved bypass value
// under this policy.
func (p OTPPolicy) IsBypass(code string) bool {
	return p.allowBypass && code == p.bypassCode
}
