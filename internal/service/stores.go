package service

import (
	"context"
	"time"

	"shoplane/api/internal/models"
)

// UserStore is the persistence surface the services need from the user
// repository. *repository.UserRepository satisfies it; tests substitute
// stubs for the lockout and status-gate paths.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	ReactivateIfExpired(ctx context.Context, id string) (models.User, bool, error)
	RecordFailedLogin(ctx context.Context, id string, window time.Duration) (int, error)
	ResetLoginAttempts(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status models.AccountStatus, reason *string, expiresAt *time.Time) error
	SetPendingTOTPSecret(ctx context.Context, id string, secret string) error
	EnableTwoFactor(ctx context.Context, id string, method models.TwoFactorMethod, secret *string) error
	DisableTwoFactor(ctx context.Context, id string) error
	MarkEmailVerified(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
}
