package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplane/api/internal/ids"
	"shoplane/api/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `
	id, user_id, refresh_token_hash, device_name, user_agent, ip_address,
	remember_me, is_active, created_at, last_seen_at, expires_at
`

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

func scanSession(row pgx.Row) (models.Session, error) {
	var session models.Session
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshTokenHash,
		&session.DeviceName,
		&session.UserAgent,
		&session.IPAddress,
		&session.RememberMe,
		&session.IsActive,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, ErrSessionNotFound
		}
		return models.Session{}, err
	}
	return session, nil
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO sessions (
			id, user_id, refresh_token_hash, device_name, user_agent, ip_address,
			remember_me, is_active, created_at, last_seen_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW(), $8
		)
	`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		session.DeviceName,
		session.UserAgent,
		session.IPAddress,
		session.RememberMe,
		session.ExpiresAt,
	)
	return err
}

// FindActiveByTokenHash is the revocation checkpoint for the refresh
// path: a revoked or expired row means the signed refresh token is dead
// no matter how long its own TTL has left.
func (r *SessionRepository) FindActiveByTokenHash(ctx context.Context, tokenHash []byte) (models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE refresh_token_hash = $1 AND is_active AND expires_at > NOW()
	`
	return scanSession(r.pool.QueryRow(ctx, query, tokenHash))
}

// GetOwned scopes the lookup by owner so a caller can never observe
// another user's session ids.
func (r *SessionRepository) GetOwned(ctx context.Context, userID, sessionID string) (models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1 AND user_id = $2
	`
	return scanSession(r.pool.QueryRow(ctx, query, sessionID, userID))
}

func (r *SessionRepository) Touch(ctx context.Context, sessionID string, ip string) error {
	const query = `
		UPDATE sessions
		SET last_seen_at = NOW(),
		    ip_address = COALESCE(NULLIF($2, ''), ip_address)
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, sessionID, ip)
	return err
}

func (r *SessionRepository) AppendActivity(ctx context.Context, sessionID string, kind models.ActivityKind, ip string) error {
	const query = `
		INSERT INTO session_activity (id, session_id, kind, ip_address, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	_, err := r.pool.Exec(ctx, query, ids.New(), sessionID, kind, ip)
	return err
}

// Revoke deactivates a session in place. Rows are never deleted so the
// activity trail survives. Idempotent: revoking twice is a no-op.
func (r *SessionRepository) Revoke(ctx context.Context, sessionID string) error {
	const query = `
		UPDATE sessions SET is_active = FALSE WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, sessionID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		// Could be already revoked or missing; distinguish for the caller.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`, sessionID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrSessionNotFound
		}
	}
	return r.AppendActivity(ctx, sessionID, models.ActivityRevoked, "")
}

// RevokeAllExcept implements "sign out of all other devices". Returns
// the ids of the sessions it deactivated so activity rows can follow.
func (r *SessionRepository) RevokeAllExcept(ctx context.Context, userID string, keepSessionID string) ([]string, error) {
	const query = `
		UPDATE sessions
		SET is_active = FALSE
		WHERE user_id = $1 AND id <> $2 AND is_active
		RETURNING id
	`

	rows, err := r.pool.Query(ctx, query, userID, keepSessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revoked []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		revoked = append(revoked, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range revoked {
		if err := r.AppendActivity(ctx, id, models.ActivityRevoked, ""); err != nil {
			return revoked, err
		}
	}
	return revoked, nil
}

func (r *SessionRepository) ListActive(ctx context.Context, userID string) ([]models.Session, error) {
	const query = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1 AND is_active AND expires_at > NOW()
		ORDER BY last_seen_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteInactiveBefore prunes long-dead rows; called by the cron job,
// never from the request path.
func (r *SessionRepository) DeleteInactiveBefore(ctx context.Context, cutoffDays int) (int64, error) {
	const query = `
		DELETE FROM sessions
		WHERE (NOT is_active OR expires_at < NOW())
		  AND last_seen_at < NOW() - ($1 || ' days')::interval
	`
	cmd, err := r.pool.Exec(ctx, query, cutoffDays)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
