package domain

import "time"

// User represents one merchant account. The pending OTP pair is only set while
// a verification is outstanding; both fields are cleared together on a
// successful verification.
type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Phone               *string    `json:"phone,omitempty"`
	PasswordHash        string     `json:"-"`
	Verified            bool       `json:"verified"`
	PendingOTP          *string    `json:"-"`
	PendingOTPExpiresAt *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// HasPendingOTP reports whether a verification code is currently outstanding.
func (u *User) HasPendingOTP() bool {
	return u.PendingOTP != nil && u.PendingOTPExpiresAt != nil
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyOTPRequest is the body of POST /api/auth/verify-otp.
type VerifyOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

// LoginRequest is the body of POST /api/auth/login. The single key is matched
// against both the email and phone columns.
type LoginRequest struct {
	EmailOrPhone string `json:"emailOrPhone"`
}
