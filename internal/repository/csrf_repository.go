package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplane/api/internal/models"
)

var ErrCSRFTokenNotFound = errors.New("csrf token not found")

type CSRFRepository struct {
	pool *pgxpool.Pool
}

func NewCSRFRepository(pool *pgxpool.Pool) *CSRFRepository {
	return &CSRFRepository{pool: pool}
}

// Issue supersedes any live token for either binding before inserting
// the new one. Write-then-delete-old is not transactional on purpose:
// token validity is time-boxed regardless, superseding just bounds growth.
func (r *CSRFRepository) Issue(ctx context.Context, token models.CSRFToken) error {
	const del = `
		DELETE FROM csrf_tokens
		WHERE (user_id IS NOT NULL AND user_id = $1)
		   OR (browser_session_id IS NOT NULL AND browser_session_id = $2)
	`
	if _, err := r.pool.Exec(ctx, del, token.UserID, token.BrowserSessionID); err != nil {
		return err
	}

	const ins = `
		INSERT INTO csrf_tokens (id, token, user_id, browser_session_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, NOW(), $5)
	`
	_, err := r.pool.Exec(ctx, ins,
		token.ID,
		token.Token,
		token.UserID,
		token.BrowserSessionID,
		token.ExpiresAt,
	)
	return err
}

// FindValid returns the unexpired row for a token value. Consumption is
// read-only; a token stays valid until expiry or supersession.
func (r *CSRFRepository) FindValid(ctx context.Context, token string) (models.CSRFToken, error) {
	const query = `
		SELECT id, token, user_id, browser_session_id, created_at, expires_at
		FROM csrf_tokens
		WHERE token = $1 AND expires_at > NOW()
	`

	row := r.pool.QueryRow(ctx, query, token)
	var t models.CSRFToken
	if err := row.Scan(
		&t.ID,
		&t.Token,
		&t.UserID,
		&t.BrowserSessionID,
		&t.CreatedAt,
		&t.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CSRFToken{}, ErrCSRFTokenNotFound
		}
		return models.CSRFToken{}, err
	}
	return t, nil
}

// DeleteForUser drops the user-bound token at logout so a revoked
// session cannot keep riding its anti-forgery token.
func (r *CSRFRepository) DeleteForUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM csrf_tokens WHERE user_id = $1`
	_, err := r.pool.Exec(ctx, query, userID)
	return err
}

func (r *CSRFRepository) DeleteExpired(ctx context.Context) (int64, error) {
	const query = `DELETE FROM csrf_tokens WHERE expires_at < NOW()`
	cmd, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
