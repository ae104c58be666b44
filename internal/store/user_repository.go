/**
 * @description
 * This file implements the credential store for merchant accounts. It defines
 * the UserRepository interface consumed by the auth service and its PostgreSQL
 * implementation. All mutations are single-row atomic statements so concurrent
 * requests against the same account serialize through the database.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 * - internal/domain: The service's domain models.
 */

package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/productr/merchant-service/internal/domain"
)

var (
	// ErrNotFound is returned when no record matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned by Create when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the interface for account data storage.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByEmailOrPhone(ctx context.Context, key string) (*domain.User, error)
	// SetPendingOTP overwrites the account's pending code and expiry,
	// discarding any unconsumed previous code.
	SetPendingOTP(ctx context.Context, userID, code string, expiresAt time.Time) error
	// ConsumePendingOTP atomically marks the account verified and clears the
	// pending code, but only if the stored code still equals the submitted one
	// and has not expired. It reports whether the row was consumed, so a code
	// overwritten by a concurrent login can never validate.
	ConsumePendingOTP(ctx context.Context, userID, code string) (bool, error)
	// ClearPendingOTP marks the account verified and clears the pending code
	// unconditionally. Only the development bypass path uses this.
	ClearPendingOTP(ctx context.Context, userID string) error
}

// PostgresUserRepository is the PostgreSQL implementation of the UserRepository.
type PostgresUserRepository struct {
	db *pgxpool.Pool
}

// NewPostgresUserRepository creates a new instance of PostgresUserRepository.
func NewPostgresUserRepository(db *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, email, phone, password_hash, verified, pending_otp, pending_otp_expires_at, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Phone,
		&u.PasswordHash,
		&u.Verified,
		&u.PendingOTP,
		&u.PendingOTPExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new account and returns its generated UUID.
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) (string, error) {
	query := `
        INSERT INTO users (email, phone, password_hash, verified, pending_otp, pending_otp_expires_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	var userID string
	err := r.db.QueryRow(ctx, query,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Verified,
		user.PendingOTP,
		user.PendingOTPExpiresAt,
	).Scan(&userID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicateEmail
		}
		log.Printf("Error inserting user into database: %v", err)
		return "", err
	}

	return userID, nil
}

// FindByID retrieves an account by its UUID.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// FindByEmail retrieves an account by exact email match.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// FindByEmailOrPhone retrieves an account where either the email or the phone
// matches the key. Phone uniqueness is not enforced at signup, so on a
// duplicate phone this returns an arbitrary match, as the lookup always has.
func (r *PostgresUserRepository) FindByEmailOrPhone(ctx context.Context, key string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 OR phone = $1 LIMIT 1`
	return scanUser(r.db.QueryRow(ctx, query, key))
}

// SetPendingOTP overwrites the pending code and expiry on the account row.
func (r *PostgresUserRepository) SetPendingOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	query := `
        UPDATE users
        SET pending_otp = $2, pending_otp_expires_at = $3, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, userID, code, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumePendingOTP performs the conditional verify-and-clear update.
func (r *PostgresUserRepository) ConsumePendingOTP(ctx context.Context, userID, code string) (bool, error) {
	query := `
        UPDATE users
        SET verified = TRUE, pending_otp = NULL, pending_otp_expires_at = NULL, updated_at = NOW()
        WHERE id = $1 AND pending_otp = $2 AND pending_otp_expires_at >= NOW()
    `
	tag, err := r.db.Exec(ctx, query, userID, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearPendingOTP marks the account verified regardless of the stored code.
func (r *PostgresUserRepository) ClearPendingOTP(ctx context.Context, userID string) error {
	query := `
        UPDATE users
        SET verified = TRUE, pending_otp = NULL, pending_otp_expires_at = NULL, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
