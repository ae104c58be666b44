/**
 * @description
 * This file contains the HTTP handlers for the authentication endpoints:
 * signup, OTP verification, and login. Handlers parse the request, apply the
 * optional per-caller rate limit, call the auth service, and map its errors
 * onto the API's status codes. All security decisions live in the service
 * layer, not here.
 *
 * @dependencies
 * - internal/app, internal/store: For service logic and sentinel errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/productr/merchant-service/internal/app"
	"github.com/productr/merchant-service/internal/domain"
	"github.com/productr/merchant-service/internal/store"
)

// AuthHandlers holds the auth service and rate limiter used by the handlers.
type AuthHandlers struct {
	service        *app.AuthService
	limiter        app.AuthRateLimiter
	limitPerMinute int
	devMode        bool
	bypassCode     string
}

// NewAuthHandlers creates a new set of authentication handlers. limiter may
// be nil when rate limiting is disabled.
func NewAuthHandlers(service *app.AuthService, limiter app.AuthRateLimiter, limitPerMinute int, devMode bool, bypassCode string) *AuthHandlers {
	return &AuthHandlers{
		service:        service,
		limiter:        limiter,
		limitPerMinute: limitPerMinute,
		devMode:        devMode,
		bypassCode:     bypassCode,
	}
}

type authResponse struct {
	Message   string `json:"message"`
	UserID    string `json:"userId"`
	Token     string `json:"token,omitempty"`
	DebugHint string `json:"debug_hint,omitempty"`
}

// debugHint tells developers about the bypass code. It is only ever present
// in development mode.
func (h *AuthHandlers) debugHint() string {
	if !h.devMode {
		return ""
	}
	return "Use " + h.bypassCode + " for testing"
}

// SignupHandler handles POST /api/auth/signup.
func (h *AuthHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.allowRate(w, r, "signup", req.Email) {
		return
	}

	result, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Email and password are required")
		case errors.Is(err, store.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "User already exists with this email")
		default:
			log.Printf("Signup failed for %s: %v", req.Email, err)
			writeError(w, http.StatusInternalServerError, "Signup failed")
		}
		return
	}

	message := "Signup successful. OTP sent to your email."
	if !result.Delivered {
		message = "Signup successful, but email failed to send. Check backend terminal for the code."
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message:   message,
		UserID:    result.UserID,
		DebugHint: h.debugHint(),
	})
}

// VerifyOTPHandler handles POST /api/auth/verify-otp.
func (h *AuthHandlers) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.allowRate(w, r, "verify", req.UserID) {
		return
	}

	result, err := h.service.VerifyOTP(r.Context(), req.UserID, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, app.ErrInvalidOTP):
			writeError(w, http.StatusBadRequest, "Invalid or expired OTP")
		default:
			log.Printf("OTP verification failed for user %s: %v", req.UserID, err)
			writeError(w, http.StatusInternalServerError, "Verification failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message: "OTP verified successfully",
		UserID:  result.UserID,
		Token:   result.Token,
	})
}

// LoginHandler handles POST /api/auth/login.
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.allowRate(w, r, "login", req.EmailOrPhone) {
		return
	}

	result, err := h.service.Login(r.Context(), req.EmailOrPhone)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrMissingFields):
			writeError(w, http.StatusBadRequest, "Email or phone is required")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			log.Printf("Login failed for %s: %v", req.EmailOrPhone, err)
			writeError(w, http.StatusInternalServerError, "Login failed")
		}
		return
	}

	message := "OTP sent to your email."
	if !result.Delivered {
		message = "OTP generation successful, but email delivery failed. Check terminal."
	}

	writeJSON(w, http.StatusOK, authResponse{
		Message:   message,
		UserID:    result.UserID,
		DebugHint: h.debugHint(),
	})
}

// allowRate consumes one rate-limit slot for the subject. Limiter errors fail
// open so an unavailable Redis never blocks authentication.
func (h *AuthHandlers) allowRate(w http.ResponseWriter, r *http.Request, scope, subject string) bool {
	if h.limiter == nil || h.limitPerMinute <= 0 || strings.TrimSpace(subject) == "" {
		return true
	}

	count, retryAfter, err := h.limiter.ConsumeRateLimit(r.Context(), scope, strings.ToLower(subject), h.limitPerMinute, time.Minute)
	if err != nil {
		log.Printf("Rate limiter unavailable for scope %s: %v", scope, err)
		return true
	}
	if count > h.limitPerMinute {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeError(w, http.StatusTooManyRequests, "Too many requests. Please try again later.")
		return false
	}
	return true
}
