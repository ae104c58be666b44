package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestHasPendingOTP(t *testing.T) {
	code := "123456"
	expiry := time.Now().Add(10 * time.Minute)

	tests := []struct {
		name string
		user User
		want bool
	}{
		{name: "no code", user: User{}, want: false},
		{name: "code and expiry", user: User{PendingOTP: &code, PendingOTPExpiresAt: &expiry}, want: true},
		{name: "code without expiry", user: User{PendingOTP: &code}, want: false},
		{name: "expiry without code", user: User{PendingOTPExpiresAt: &expiry}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPendingOTP(); got != tt.want {
				t.Fatalf("HasPendingOTP() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Credentials and code material must never appear in a serialized user.
func TestUserJSONHidesSecrets(t *testing.T) {
	code := "123456"
	expiry := time.Now()
	user := User{
		ID:                  "user-1",
		Email:               "a@x.com",
		PasswordHash:        "bcrypt-hash",
		PendingOTP:          &code,
		PendingOTPExpiresAt: &expiry,
	}

	data, err := json.Marshal(user)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	body := string(data)
	for _, secret := range []string{"bcrypt-hash", "123456", "password", "otp"} {
		if strings.Contains(strings.ToLower(body), secret) {
			t.Fatalf("serialized user leaks %q: %s", secret, body)
		}
	}
}

func TestToggleStatus(t *testing.T) {
	p := Product{Status: ProductUnpublished}

	p.ToggleStatus()
	if p.Status != ProductPublished {
		t.Fatalf("status = %s, want published", p.Status)
	}
	p.ToggleStatus()
	if p.Status != ProductUnpublished {
		t.Fatalf("status = %s, want unpublished", p.Status)
	}
}

func TestToggleStatusFromUnknownValue(t *testing.T) {
	p := Product{Status: ProductStatus("")}
	p.ToggleStatus()
	if p.Status != ProductPublished {
		t.Fatalf("status = %s, want published for a non-published input", p.Status)
	}
}
