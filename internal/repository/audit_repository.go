package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"shoplane/api/internal/ids"
)

// AuditRepository is append-only. There are deliberately no update or
// delete methods.
type AuditRepository struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

type AuditEntry struct {
	ID          string
	UserID      string
	EventType   string
	Description string
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

func (r *AuditRepository) Append(ctx context.Context, entry AuditEntry) error {
	const query = `
		INSERT INTO audit_log (id, user_id, event_type, description, ip_address, user_agent, created_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NOW())
	`
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.UserID,
		entry.EventType,
		entry.Description,
		entry.IPAddress,
		entry.UserAgent,
	)
	return err
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID string, limit int) ([]AuditEntry, error) {
	const query = `
		SELECT id, COALESCE(user_id, ''), event_type, description, ip_address, user_agent, created_at
		FROM audit_log
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.EventType, &e.Description, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
