package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/productr/merchant-service/internal/domain"
	"github.com/productr/merchant-service/internal/store"
)

// memUserRepo is an in-memory UserRepository for handler tests.
type memUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*domain.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (string, error) {
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
	r.users[id] = &clone
	return id, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
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

func (r *memUserRepo) FindByEmailOrPhone(_ context.Context, key string) (*domain.User, error) {
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

func (r *memUserRepo) SetPendingOTP(_ context.Context, userID, code string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	user.PendingOTP = &code
	user.PendingOTPExpiresAt = &expiresAt
	return nil
}

func (r *memUserRepo) ConsumePendingOTP(_ context.Context, userID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.PendingOTP == nil || user.PendingOTPExpiresAt == nil {
		return false, nil
	}
	if *user.PendingOTP != code || time.Now().After(*user.PendingOTPExpiresAt) {
		return false, nil
	}
	user.Verified = true
	user.PendingOTP = nil
	user.PendingOTPExpiresAt = nil
	return true, nil
}

func (r *memUserRepo) ClearPendingOTP(_ context.Context, userID string) error {
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

func (r *memUserRepo) lastOTP(userID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok || user.PendingOTP == nil {
		return ""
	}
	return *user.PendingOTP
}

// memProductRepo is an in-memory ProductRepository for handler tests.
type memProductRepo struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	nextID   int
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: map[string]*domain.Product{}}
}

func (r *memProductRepo) Create(_ context.Context, product *domain.Product) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("product-%d", r.nextID)
	clone := *product
	clone.ID = id
	clone.CreatedAt = time.Now()
	clone.UpdatedAt = clone.CreatedAt
	r.products[id] = &clone
	return id, nil
}

func (r *memProductRepo) FindByID(_ context.Context, id, userID string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok || product.UserID != userID {
		return nil, store.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *memProductRepo) ListByUserID(_ context.Context, userID string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []domain.Product{}
	for _, product := range r.products {
		if product.UserID == userID {
			result = append(result, *product)
		}
	}
	return result, nil
}

func (r *memProductRepo) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[product.ID]
	if !ok || stored.UserID != product.UserID {
		return store.ErrNotFound
	}
	clone := *product
	clone.UpdatedAt = time.Now()
	r.products[product.ID] = &clone
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok || product.UserID != userID {
		return store.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// recordingNotifier records delivery attempts with a fixed outcome.
type recordingNotifier struct {
	mu        sync.Mutex
	delivered bool
	sent      int
}

func (n *recordingNotifier) SendOTP(_ context.Context, _, _ string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	return n.delivered
}

// stubRateLimiter returns canned counts so the 429 path can be exercised
// without Redis.
type stubRateLimiter struct {
	count      int
	retryAfter int
	err        error
}

func (l *stubRateLimiter) ConsumeRateLimit(_ context.Context, _, _ string, _ int, _ time.Duration) (int, int, error) {
	return l.count, l.retryAfter, l.err
}
