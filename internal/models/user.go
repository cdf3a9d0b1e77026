package models

import "time"

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleStaff    UserRole = "staff"
	UserRoleCustomer UserRole = "customer"
)

type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusBanned    AccountStatus = "banned"
	AccountStatusLocked    AccountStatus = "locked"
)

type TwoFactorMethod string

const (
	TwoFactorNone  TwoFactorMethod = "none"
	TwoFactorApp   TwoFactorMethod = "app"
	TwoFactorEmail TwoFactorMethod = "email"
)

type User struct {
	ID               string
	Email            string
	Username         string
	PasswordHash     []byte
	Role             UserRole
	EmailVerified    bool
	TwoFactorEnabled bool
	TwoFactorMethod  TwoFactorMethod
	TOTPSecret       *string
	LoginAttempts    int
	LastAttemptAt    *time.Time
	Status           AccountStatus
	StatusReason     *string
	StatusExpiresAt  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Restricted reports whether the account is currently barred from
// authenticating. An expired restriction no longer counts; the caller is
// expected to reactivate the row.
func (u User) Restricted(now time.Time) bool {
	if u.Status == AccountStatusActive {
		return false
	}
	if u.StatusExpiresAt != nil && u.StatusExpiresAt.Before(now) {
		return false
	}
	return true
}
