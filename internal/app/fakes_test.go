package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/productr/merchant-service/internal/domain"
	"github.com/productr/merchant-service/internal/store"
)

// fakeUserRepo is an in-memory UserRepository mirroring the semantics of the
// Postgres implementation, including the conditional consume update.
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return "", store.ErrDuplicateEmail
		}
	}
	r.nextID++
	id := fmt.Sprintf("user-%d", r.nextID)
	clone := *user
	clone.ID = id
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.users[id] = &clone
	return id, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) FindByEmailOrPhone(_ context.Context, key string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == key || (user.Phone != nil && *user.Phone == key) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *fakeUserRepo) SetPendingOTP(_ context.Context, userID, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.PendingOTP = &code
	user.PendingOTPExpiresAt = &expiresAt
	user.UpdatedAt = time.Now()
	return nil
}

func (r *fakeUserRepo) ConsumePendingOTP(_ context.Context, userID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return false, nil
	}
	if user.PendingOTP == nil || user.PendingOTPExpiresAt == nil {
		return false, nil
	}
	if *user.PendingOTP != code || time.Now().After(*user.PendingOTPExpiresAt) {
		return false, nil
	}
	user.Verified = true
	user.PendingOTP = nil
	user.PendingOTPExpiresAt = nil
	user.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakeUserRepo) ClearPendingOTP(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.Verified = true
	user.PendingOTP = nil
	user.PendingOTPExpiresAt = nil
	return nil
}

// expirePendingOTP backdates the stored expiry for expiry tests.
func (r *fakeUserRepo) expirePendingOTP(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	past := time.Now().Add(-time.Minute)
	r.users[userID].PendingOTPExpiresAt = &past
}

// fakeNotifier records every delivery attempt and reports a configured
// delivery outcome.
type fakeNotifier struct {
	mu        sync.Mutex
	delivered bool
	sent      []sentOTP
}

type sentOTP struct {
	Email string
	Code  string
}

func (n *fakeNotifier) SendOTP(_ context.Context, email, code string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentOTP{Email: email, Code: code})
	return n.delivered
}

func (n *fakeNotifier) lastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ""
	}
	return n.sent[len(n.sent)-1].Code
}
