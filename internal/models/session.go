package models

import "time"

type Session struct {
	ID               string
	UserID           string
	RefreshTokenHash []byte
	DeviceName       string
	UserAgent        string
	IPAddress        string
	RememberMe       bool
	IsActive         bool
	CreatedAt        time.Time
	LastSeenAt       time.Time
	ExpiresAt        time.Time
}

// Usable is the single validity rule for sessions: active flag set and
// not past expiry. Revocation only ever clears the flag, rows are kept.
func (s Session) Usable(now time.Time) bool {
	return s.IsActive && s.ExpiresAt.After(now)
}

type ActivityKind string

const (
	ActivityAuthCheck ActivityKind = "auth_check"
	ActivityRefresh   ActivityKind = "refresh"
	ActivityLogout    ActivityKind = "logout"
	ActivityRevoked   ActivityKind = "revoked"
)

type SessionActivity struct {
	ID        string
	SessionID string
	Kind      ActivityKind
	IPAddress string
	CreatedAt time.Time
}
