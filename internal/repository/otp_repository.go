package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplane/api/internal/models"
)

var ErrOTPNotFound = errors.New("otp not found")

type OTPRepository struct {
	pool *pgxpool.Pool
}

func NewOTPRepository(pool *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{pool: pool}
}

func (r *OTPRepository) Create(ctx context.Context, otp models.OTP) error {
	const query = `
		INSERT INTO otps (id, user_id, email, code, purpose, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6)
	`
	_, err := r.pool.Exec(ctx, query,
		otp.ID,
		otp.UserID,
		otp.Email,
		otp.Code,
		otp.Purpose,
		otp.ExpiresAt,
	)
	return err
}

func (r *OTPRepository) FindValid(ctx context.Context, userID string, purpose models.OTPPurpose, code string) (models.OTP, error) {
	const query = `
		SELECT id, user_id, email, code, purpose, created_at, expires_at
		FROM otps
		WHERE user_id = $1 AND purpose = $2 AND code = $3 AND expires_at > NOW()
	`

	row := r.pool.QueryRow(ctx, query, userID, purpose, code)
	var otp models.OTP
	if err := row.Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.Code,
		&otp.Purpose,
		&otp.CreatedAt,
		&otp.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OTP{}, ErrOTPNotFound
		}
		return models.OTP{}, err
	}
	return otp, nil
}

// FindValidByCode resolves an emailed link token without knowing the
// owner up front (2FA disable confirmation arrives unauthenticated).
func (r *OTPRepository) FindValidByCode(ctx context.Context, purpose models.OTPPurpose, code string) (models.OTP, error) {
	const query = `
		SELECT id, user_id, email, code, purpose, created_at, expires_at
		FROM otps
		WHERE purpose = $1 AND code = $2 AND expires_at > NOW()
	`

	row := r.pool.QueryRow(ctx, query, purpose, code)
	var otp models.OTP
	if err := row.Scan(
		&otp.ID,
		&otp.UserID,
		&otp.Email,
		&otp.Code,
		&otp.Purpose,
		&otp.CreatedAt,
		&otp.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OTP{}, ErrOTPNotFound
		}
		return models.OTP{}, err
	}
	return otp, nil
}

// ConsumeAll deletes every outstanding OTP for the (user, purpose) pair.
// Single-use semantics: the first successful code kills its siblings.
func (r *OTPRepository) ConsumeAll(ctx context.Context, userID string, purpose models.OTPPurpose) error {
	const query = `DELETE FROM otps WHERE user_id = $1 AND purpose = $2`
	_, err := r.pool.Exec(ctx, query, userID, purpose)
	return err
}

func (r *OTPRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM otps WHERE expires_at < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
