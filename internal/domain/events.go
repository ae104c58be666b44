package domain

import "time"

// UserCreatedEvent is published to RabbitMQ after a successful signup.
type UserCreatedEvent struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// OTPRequestedEvent is published whenever a verification code is (re)issued,
// on signup and on every login. Delivered reports whether the outbound email
// went out; operators consume this stream as the side channel when it did not.
type OTPRequestedEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Delivered bool      `json:"delivered"`
	ExpiresAt time.Time `json:"expires_at"`
}
