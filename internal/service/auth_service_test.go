package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shoplane/api/internal/audit"
	"shoplane/api/internal/config"
	"shoplane/api/internal/mail"
	"shoplane/api/internal/models"
	"shoplane/api/internal/repository"
	"shoplane/api/internal/security"
)

// stubUserStore keeps a single user in memory and counts failed-login
// escalations. Function fields override individual calls when a test
// needs to steer a specific path.
type stubUserStore struct {
	user     models.User
	attempts int

	reactivate func() (models.User, bool, error)
	getByID    func() (models.User, error)
}

func (s *stubUserStore) Create(_ context.Context, user models.User) error {
	s.user = user
	return nil
}

func (s *stubUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	if email != s.user.Email {
		return models.User{}, repository.ErrUserNotFound
	}
	return s.user, nil
}

func (s *stubUserStore) GetByID(_ context.Context, _ string) (models.User, error) {
	if s.getByID != nil {
		return s.getByID()
	}
	return s.user, nil
}

func (s *stubUserStore) ReactivateIfExpired(_ context.Context, _ string) (models.User, bool, error) {
	if s.reactivate != nil {
		return s.reactivate()
	}
	return s.user, false, nil
}

func (s *stubUserStore) RecordFailedLogin(_ context.Context, _ string, _ time.Duration) (int, error) {
	s.attempts++
	return s.attempts, nil
}

func (s *stubUserStore) ResetLoginAttempts(_ context.Context, _ string) error {
	s.attempts = 0
	return nil
}

func (s *stubUserStore) SetStatus(_ context.Context, _ string, status models.AccountStatus, reason *string, expiresAt *time.Time) error {
	s.user.Status = status
	s.user.StatusReason = reason
	s.user.StatusExpiresAt = expiresAt
	return nil
}

func (s *stubUserStore) SetPendingTOTPSecret(_ context.Context, _ string, secret string) error {
	s.user.TOTPSecret = &secret
	return nil
}

func (s *stubUserStore) EnableTwoFactor(_ context.Context, _ string, method models.TwoFactorMethod, secret *string) error {
	s.user.TwoFactorEnabled = true
	s.user.TwoFactorMethod = method
	s.user.TOTPSecret = secret
	return nil
}

func (s *stubUserStore) DisableTwoFactor(_ context.Context, _ string) error {
	s.user.TwoFactorEnabled = false
	s.user.TwoFactorMethod = models.TwoFactorNone
	s.user.TOTPSecret = nil
	return nil
}

func (s *stubUserStore) MarkEmailVerified(_ context.Context, _ string) error {
	s.user.EmailVerified = true
	return nil
}

func (s *stubUserStore) UpdatePassword(_ context.Context, _ string, passwordHash []byte) error {
	s.user.PasswordHash = passwordHash
	return nil
}

func lockoutTestConfig() *config.AppConfig {
	return &config.AppConfig{
		Lockout: config.LockoutConfig{
			Threshold: 6,
			Window:    15 * time.Minute,
			Duration:  30 * time.Minute,
		},
	}
}

func newTestServices(store *stubUserStore) (*AuthService, *TwoFactorService) {
	cfg := lockoutTestConfig()
	recorder := audit.NewRecorder(nil, zerolog.Nop())
	mailer := mail.NewLogMailer(zerolog.Nop())

	auth := NewAuthService(store, nil, nil, nil, recorder, mailer, cfg, zerolog.Nop())
	twoFactor := NewTwoFactorService(store, nil, auth, recorder, mailer, cfg, zerolog.Nop())
	return auth, twoFactor
}

func TestVerifyLogin_CodeFailuresLockAccount(t *testing.T) {
	t.Parallel()

	secret, _, err := security.GenerateTOTPSecret("Shoplane", "victim@shop.dev")
	if err != nil {
		t.Fatalf("GenerateTOTPSecret error: %v", err)
	}

	store := &stubUserStore{user: models.User{
		ID:               "u-1",
		Email:            "victim@shop.dev",
		Status:           models.AccountStatusActive,
		TwoFactorEnabled: true,
		TwoFactorMethod:  models.TwoFactorApp,
		TOTPSecret:       &secret,
	}}
	_, twoFactor := newTestServices(store)
	ctx := context.Background()

	// Wrong codes burn the same attempt budget as wrong passwords.
	for i := 1; i <= 6; i++ {
		_, err := twoFactor.VerifyLogin(ctx, "victim@shop.dev", "no-code", false, "", "127.0.0.1", "test")
		if !errors.Is(err, ErrInvalidCode) {
			t.Fatalf("attempt %d: expected ErrInvalidCode, got %v", i, err)
		}
		if i < 6 && store.user.Status != models.AccountStatusActive {
			t.Fatalf("attempt %d: account restricted before the threshold", i)
		}
	}

	if store.user.Status != models.AccountStatusLocked {
		t.Fatalf("expected locked account after 6 failed codes, got %s", store.user.Status)
	}
	if store.user.StatusExpiresAt == nil || !store.user.StatusExpiresAt.After(time.Now()) {
		t.Fatal("lock carries no future expiry")
	}

	// Even the correct code is refused while the lock holds.
	code, err := security.TOTPCodeAt(secret, time.Now())
	if err != nil {
		t.Fatalf("TOTPCodeAt error: %v", err)
	}
	_, err = twoFactor.VerifyLogin(ctx, "victim@shop.dev", code, false, "", "127.0.0.1", "test")
	var restricted *AccountRestrictedError
	if !errors.As(err, &restricted) {
		t.Fatalf("expected AccountRestrictedError, got %v", err)
	}
	if restricted.Status != models.AccountStatusLocked {
		t.Fatalf("expected locked status, got %s", restricted.Status)
	}
}

func TestCheckAccountStatus_LostRaceKeepsNewRestriction(t *testing.T) {
	t.Parallel()

	pastExpiry := time.Now().Add(-time.Minute)
	reason := "locked after 6 failed sign-in attempts"
	lockedUser := models.User{
		ID:              "u-2",
		Email:           "raced@shop.dev",
		Status:          models.AccountStatusLocked,
		StatusReason:    &reason,
		StatusExpiresAt: &pastExpiry,
	}

	banReason := "fraudulent orders"
	store := &stubUserStore{
		user: lockedUser,
		reactivate: func() (models.User, bool, error) {
			// Another request got to the row first.
			return models.User{}, false, nil
		},
		getByID: func() (models.User, error) {
			return models.User{
				ID:           "u-2",
				Email:        "raced@shop.dev",
				Status:       models.AccountStatusBanned,
				StatusReason: &banReason,
			}, nil
		},
	}
	auth, _ := newTestServices(store)

	_, err := auth.CheckAccountStatus(context.Background(), lockedUser)
	var restricted *AccountRestrictedError
	if !errors.As(err, &restricted) {
		t.Fatalf("expected AccountRestrictedError after lost race, got %v", err)
	}
	if restricted.Status != models.AccountStatusBanned {
		t.Fatalf("expected banned status from the re-read row, got %s", restricted.Status)
	}
	if restricted.Reason != banReason {
		t.Fatalf("expected re-read reason %q, got %q", banReason, restricted.Reason)
	}
}

func TestCheckAccountStatus_LostRaceToClearedRow(t *testing.T) {
	t.Parallel()

	pastExpiry := time.Now().Add(-time.Minute)
	lockedUser := models.User{
		ID:              "u-3",
		Email:           "cleared@shop.dev",
		Status:          models.AccountStatusLocked,
		StatusExpiresAt: &pastExpiry,
	}

	store := &stubUserStore{
		user: lockedUser,
		reactivate: func() (models.User, bool, error) {
			return models.User{}, false, nil
		},
		getByID: func() (models.User, error) {
			return models.User{
				ID:     "u-3",
				Email:  "cleared@shop.dev",
				Status: models.AccountStatusActive,
			}, nil
		},
	}
	auth, _ := newTestServices(store)

	user, err := auth.CheckAccountStatus(context.Background(), lockedUser)
	if err != nil {
		t.Fatalf("CheckAccountStatus error: %v", err)
	}
	if user.Status != models.AccountStatusActive {
		t.Fatalf("expected active user after winner cleared the lock, got %s", user.Status)
	}
}
