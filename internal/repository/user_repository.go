package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplane/api/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `
	id, email, username, password_hash, role, email_verified,
	two_factor_enabled, two_factor_method, totp_secret,
	login_attempts, last_attempt_at,
	status, status_reason, status_expires_at,
	created_at, updated_at
`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.EmailVerified,
		&user.TwoFactorEnabled,
		&user.TwoFactorMethod,
		&user.TOTPSecret,
		&user.LoginAttempts,
		&user.LastAttemptAt,
		&user.Status,
		&user.StatusReason,
		&user.StatusExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, email, username, password_hash, role, email_verified,
			two_factor_enabled, two_factor_method, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.EmailVerified,
		user.TwoFactorEnabled,
		user.TwoFactorMethod,
		user.Status,
	)
	return err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// ReactivateIfExpired atomically clears a lapsed restriction. The WHERE
// clause makes concurrent reactivations idempotent: both requests see
// the same end state. Returns the fresh row and whether a write happened.
func (r *UserRepository) ReactivateIfExpired(ctx context.Context, id string) (models.User, bool, error) {
	const query = `
		UPDATE users
		SET status = 'active', status_reason = NULL, status_expires_at = NULL,
		    login_attempts = 0, updated_at = NOW()
		WHERE id = $1 AND status <> 'active'
		  AND status_expires_at IS NOT NULL AND status_expires_at < NOW()
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return models.User{}, false, nil
		}
		return models.User{}, false, err
	}
	return user, true, nil
}

// RecordFailedLogin bumps the attempt counter with sliding-window
// semantics: attempts older than the window start a new count at 1.
// Returns the counter after the increment.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id string, window time.Duration) (int, error) {
	const query = `
		UPDATE users
		SET login_attempts = CASE
				WHEN last_attempt_at IS NULL OR last_attempt_at < NOW() - $2::interval THEN 1
				ELSE login_attempts + 1
			END,
			last_attempt_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
		RETURNING login_attempts
	`

	var attempts int
	err := r.pool.QueryRow(ctx, query, id, window).Scan(&attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return attempts, nil
}

func (r *UserRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET login_attempts = 0, last_attempt_at = NULL, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *UserRepository) SetStatus(ctx context.Context, id string, status models.AccountStatus, reason *string, expiresAt *time.Time) error {
	const query = `
		UPDATE users
		SET status = $2, status_reason = $3, status_expires_at = $4, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status, reason, expiresAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) error {
	const query = `
		UPDATE users
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, passwordHash)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPendingTOTPSecret stores an unconfirmed authenticator secret.
// The enabled flag stays false until the first code verifies.
func (r *UserRepository) SetPendingTOTPSecret(ctx context.Context, id string, secret string) error {
	const query = `
		UPDATE users
		SET totp_secret = $2, two_factor_enabled = FALSE, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, secret)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) EnableTwoFactor(ctx context.Context, id string, method models.TwoFactorMethod, secret *string) error {
	const query = `
		UPDATE users
		SET two_factor_enabled = TRUE, two_factor_method = $2, totp_secret = $3, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, method, secret)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) DisableTwoFactor(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET two_factor_enabled = FALSE, two_factor_method = 'none', totp_secret = NULL, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	const query = `
		UPDATE users
		SET email_verified = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
