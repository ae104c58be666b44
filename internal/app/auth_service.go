/**
 * @description
 * This file contains the core authentication flow for the merchant backend:
 * signup, verification-code validation, and OTP-based login. The AuthService
 * drives each account through its verification states (no pending code ->
 * code pending -> verified) and is the only place a session token is minted.
 *
 * Key invariants:
 * - At most one live OTP per account: every (re)issue overwrites the previous
 *   code with no grace window.
 * - A code validates at most once: the store clears it in the same atomic
 *   update that marks the account verified.
 * - Delivery failure is a soft failure: the account state is committed and
 *   the caller is told the code went undelivered.
 *
 * @dependencies
 * - golang.org/x/crypto/bcrypt: One-way password hashing.
 * - internal/domain, internal/store, internal/notifier, internal/token.
 * - pkg/rabbitmq: Best-effort domain event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/productr/merchant-service/internal/domain"
	"github.com/productr/merchant-service/internal/notifier"
	"github.com/productr/merchant-service/internal/store"
	"github.com/productr/merchant-service/internal/token"
	"github.com/productr/merchant-service/pkg/rabbitmq"
)

var (
	// ErrMissingFields is returned when a required request field is absent.
	ErrMissingFields = errors.New("required field missing")
	// ErrInvalidOTP is returned when a submitted code does not match the
	// pending one, has expired, or was already consumed.
	ErrInvalidOTP = errors.New("invalid or expired OTP")
)

const (
	userEventsExchange  = "user_events"
	userCreatedKey      = "user.created"
	otpRequestedKey     = "auth.otp_requested"
	eventPublishTimeout = 5 * time.Second
)

// AuthService orchestrates the credential store, the OTP generator, the
// notifier and the session issuer. Dependencies are one-directional; none of
// them call back into the service.
type AuthService struct {
	repo      store.UserRepository
	notifier  notifier.Notifier
	issuer    *token.Issuer
	producer  rabbitmq.Publisher
	policy    OTPPolicy
	otpTTL    time.Duration
	otpDigits int
}

// NewAuthService creates the auth orchestrator. producer may be nil when the
// message broker is unavailable; events are then skipped.
func NewAuthService(repo store.UserRepository, n notifier.Notifier, issuer *token.Issuer, producer rabbitmq.Publisher, policy OTPPolicy, otpTTL time.Duration, otpDigits int) *AuthService {
	if otpTTL <= 0 {
		otpTTL = 10 * time.Minute
	}
	return &AuthService{
		repo:      repo,
		notifier:  n,
		issuer:    issuer,
		producer:  producer,
		policy:    policy,
		otpTTL:    otpTTL,
		otpDigits: otpDigits,
	}
}

// SignupResult is returned on successful account creation.
type SignupResult struct {
	UserID    string
	Delivered bool
}

// VerifyResult is returned on successful code verification. This is the only
// path that produces a session token.
type VerifyResult struct {
	UserID string
	Token  string
}

// LoginResult is returned after a login request issues a fresh code. No token
// is minted here; the client must follow up with VerifyOTP.
type LoginResult struct {
	UserID    string
	Delivered bool
}

// Signup creates a new unverified account with a fresh pending OTP and
// attempts delivery. Returns store.ErrDuplicateEmail when the email is taken.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*SignupResult, error) {
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	code, err := GenerateOTP(s.otpDigits)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.otpTTL)

	user := &domain.User{
		Email:               email,
		PasswordHash:        string(hash),
		Verified:            false,
		PendingOTP:          &code,
		PendingOTPExpiresAt: &expiresAt,
	}

	userID, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	delivered := s.notifier.SendOTP(ctx, email, code)

	s.publish(userCreatedKey, domain.UserCreatedEvent{UserID: userID, Email: email})
	s.publish(otpRequestedKey, domain.OTPRequestedEvent{UserID: userID, Email: email, Delivered: delivered, ExpiresAt: expiresAt})

	return &SignupResult{UserID: userID, Delivered: delivered}, nil
}

// VerifyOTP validates the submitted code against the account's pending one
// and, on success, marks the account verified, clears the code and mints a
// session token. Returns store.ErrNotFound for an unknown id and
// ErrInvalidOTP for a wrong, expired or already-consumed code.
func (s *AuthService) VerifyOTP(ctx context.Context, userID, code string) (*VerifyResult, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.policy.IsBypass(code) {
		if err := s.repo.ClearPendingOTP(ctx, user.ID); err != nil {
			return nil, err
		}
		return s.mintSession(user.ID)
	}

	if !otpMatches(user, code, time.Now()) {
		return nil, ErrInvalidOTP
	}

	consumed, err := s.repo.ConsumePendingOTP(ctx, user.ID, code)
	if err != nil {
		return nil, err
	}
	if !consumed {
		// The code was overwritten or consumed by a concurrent request
		// between our read and the conditional update.
		return nil, ErrInvalidOTP
	}

	return s.mintSession(user.ID)
}

// Login looks an account up by email or phone, overwrites its pending OTP
// with a fresh code and attempts delivery. Any prior unconsumed code is
// invalidated immediately.
func (s *AuthService) Login(ctx context.Context, emailOrPhone string) (*LoginResult, error) {
	if emailOrPhone == "" {
		return nil, ErrMissingFields
	}

	user, err := s.repo.FindByEmailOrPhone(ctx, emailOrPhone)
	if err != nil {
		return nil, err
	}

	code, err := GenerateOTP(s.otpDigits)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.otpTTL)

	if err := s.repo.SetPendingOTP(ctx, user.ID, code, expiresAt); err != nil {
		return nil, err
	}

	delivered := s.notifier.SendOTP(ctx, user.Email, code)

	s.publish(otpRequestedKey, domain.OTPRequestedEvent{UserID: user.ID, Email: user.Email, Delivered: delivered, ExpiresAt: expiresAt})

	return &LoginResult{UserID: user.ID, Delivered: delivered}, nil
}

func (s *AuthService) mintSession(userID string) (*VerifyResult, error) {
	sessionToken, err := s.issuer.Issue(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &VerifyResult{UserID: userID, Token: sessionToken}, nil
}

// otpMatches applies the validation rule: exact string equality on the stored
// code and a strict now-after-expiry comparison.
func otpMatches(user *domain.User, code string, now time.Time) bool {
	if !user.HasPendingOTP() {
		return false
	}
	if code != *user.PendingOTP {
		return false
	}
	return !now.After(*user.PendingOTPExpiresAt)
}

// publish sends a domain event best-effort; a broker failure only logs.
func (s *AuthService) publish(routingKey string, body interface{}) {
	if s.producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
	defer cancel()
	if err := s.producer.Publish(ctx, userEventsExchange, routingKey, body); err != nil {
		log.Printf("Failed to publish %s event: %v", routingKey, err)
	}
}
