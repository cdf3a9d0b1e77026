package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shoplane/api/internal/audit"
	"shoplane/api/internal/config"
	"shoplane/api/internal/ids"
	"shoplane/api/internal/mail"
	"shoplane/api/internal/models"
	"shoplane/api/internal/repository"
	"shoplane/api/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSessionNotFound    = errors.New("session not found")
)

// AccountRestrictedError carries the human-readable reason and expiry so
// the client can show when the account comes back.
type AccountRestrictedError struct {
	Status    models.AccountStatus
	Reason    string
	ExpiresAt *time.Time
}

func (e *AccountRestrictedError) Error() string {
	return fmt.Sprintf("account %s", e.Status)
}

type AuthService struct {
	users    UserStore
	sessions *repository.SessionRepository
	csrf     *repository.CSRFRepository
	otps     *repository.OTPRepository
	recorder *audit.Recorder
	mailer   mail.Mailer
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(
	users UserStore,
	sessions *repository.SessionRepository,
	csrf *repository.CSRFRepository,
	otps *repository.OTPRepository,
	recorder *audit.Recorder,
	mailer mail.Mailer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		csrf:     csrf,
		otps:     otps,
		recorder: recorder,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
	}
}

type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	if input.Email == "" || input.Password == "" {
		return models.User{}, fmt.Errorf("email and password required")
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return models.User{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.User{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:              ids.New(),
		Email:           input.Email,
		Username:        input.Username,
		PasswordHash:    passwordHash,
		Role:            models.UserRoleCustomer,
		Status:          models.AccountStatusActive,
		TwoFactorMethod: models.TwoFactorNone,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return models.User{}, err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:    user.ID,
		Type:      audit.EventAccountRegistered,
		IPAddress: input.IPAddress,
		UserAgent: input.UserAgent,
	})

	return user, nil
}

type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	DeviceName string
	IPAddress  string
	UserAgent  string
}

// LoginResult distinguishes the three outcomes of a password check:
// restriction (error), second factor pending (TwoFactorRequired), or
// issued credentials.
type LoginResult struct {
	TwoFactorRequired bool
	TwoFactorMethod   models.TwoFactorMethod
	User              models.User
	AccessToken       string
	RefreshToken      string
	Session           *models.Session
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))
	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	user, err = s.CheckAccountStatus(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, s.recordLoginFailure(ctx, user, input)
	}

	if user.TwoFactorEnabled {
		return LoginResult{
			TwoFactorRequired: true,
			TwoFactorMethod:   user.TwoFactorMethod,
			User:              user,
		}, nil
	}

	return s.IssueCredentials(ctx, user, input.RememberMe, input.DeviceName, input.IPAddress, input.UserAgent)
}

// recordLoginFailure escalates the sliding-window attempt counter and
// locks the account at the threshold. Always returns ErrInvalidCredentials
// so the caller cannot tell a locked-by-this-attempt account apart from
// a plain wrong password.
func (s *AuthService) recordLoginFailure(ctx context.Context, user models.User, input LoginInput) error {
	attempts := s.escalateFailure(ctx, user, input.IPAddress, input.UserAgent)

	s.recorder.Record(ctx, audit.Event{
		UserID:      user.ID,
		Type:        audit.EventLoginFailure,
		Description: fmt.Sprintf("failed sign-in attempt %d of %d", attempts, s.cfg.Lockout.Threshold),
		IPAddress:   input.IPAddress,
		UserAgent:   input.UserAgent,
	})

	return ErrInvalidCredentials
}

// escalateFailure bumps the sliding-window attempt counter and locks the
// account at the threshold. Password failures and second-factor code
// failures feed the same counter: holding a correct password must not
// buy unlimited tries at the code space. Returns the count after the
// increment.
func (s *AuthService) escalateFailure(ctx context.Context, user models.User, ip, userAgent string) int {
	attempts, err := s.users.RecordFailedLogin(ctx, user.ID, s.cfg.Lockout.Window)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("record failed login")
		return 0
	}

	if attempts >= s.cfg.Lockout.Threshold {
		reason := fmt.Sprintf("locked after %d failed sign-in attempts", attempts)
		expiry := time.Now().Add(s.cfg.Lockout.Duration)
		if err := s.users.SetStatus(ctx, user.ID, models.AccountStatusLocked, &reason, &expiry); err != nil {
			s.log.Error().Err(err).Str("user_id", user.ID).Msg("lock account")
		} else {
			s.recorder.Record(ctx, audit.Event{
				UserID:    user.ID,
				Type:      audit.EventAccountLocked,
				IPAddress: ip,
				UserAgent: userAgent,
			})
		}
	}

	return attempts
}

// CheckAccountStatus enforces the active/suspended/banned/locked gate.
// A restriction whose expiry has passed is cleared in the same call; the
// request that observed the lapse proceeds as active.
func (s *AuthService) CheckAccountStatus(ctx context.Context, user models.User) (models.User, error) {
	now := time.Now()
	if user.Status == models.AccountStatusActive {
		return user, nil
	}

	if user.StatusExpiresAt != nil && user.StatusExpiresAt.Before(now) {
		fresh, reactivated, err := s.users.ReactivateIfExpired(ctx, user.ID)
		if err != nil {
			return models.User{}, err
		}
		if reactivated {
			s.recorder.Record(ctx, audit.Event{
				UserID: user.ID,
				Type:   audit.EventAccountUnlocked,
			})
			return fresh, nil
		}
		// Lost the race to another request; re-read the row and gate on
		// what it says now. The winner may have cleared the restriction,
		// or an admin may have replaced it with a harsher one.
		fresh, err = s.users.GetByID(ctx, user.ID)
		if err != nil {
			return models.User{}, err
		}
		if fresh.Restricted(now) {
			return models.User{}, restrictedError(fresh)
		}
		return fresh, nil
	}

	return models.User{}, restrictedError(user)
}

func restrictedError(user models.User) *AccountRestrictedError {
	reason := ""
	if user.StatusReason != nil {
		reason = *user.StatusReason
	}
	return &AccountRestrictedError{
		Status:    user.Status,
		Reason:    reason,
		ExpiresAt: user.StatusExpiresAt,
	}
}

// IssueCredentials mints the access credential and, when the caller
// opted into a persistent session, a refresh credential backed by a
// session row. Access-only callers get nothing revocable because the
// token dies on its own within minutes.
func (s *AuthService) IssueCredentials(ctx context.Context, user models.User, rememberMe bool, deviceName, ip, userAgent string) (LoginResult, error) {
	if err := s.users.ResetLoginAttempts(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("reset login attempts")
	}

	accessToken, err := security.IssueAccessToken(
		s.cfg.Auth.AccessSecret, user.ID, user.Email, user.Username, s.cfg.Auth.AccessTTL)
	if err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{
		User:        user,
		AccessToken: accessToken,
	}

	if rememberMe {
		refreshToken, err := security.IssueRefreshToken(s.cfg.Auth.RefreshSecret, user.ID, s.cfg.Auth.RefreshTTL)
		if err != nil {
			return LoginResult{}, err
		}

		if deviceName == "" {
			deviceName = "Unknown Device"
		}
		session := models.Session{
			ID:               ids.New(),
			UserID:           user.ID,
			RefreshTokenHash: security.HashToken(refreshToken),
			DeviceName:       deviceName,
			UserAgent:        userAgent,
			IPAddress:        ip,
			RememberMe:       true,
			ExpiresAt:        time.Now().Add(s.cfg.Auth.RefreshTTL),
		}
		if err := s.sessions.Create(ctx, session); err != nil {
			return LoginResult{}, err
		}

		result.RefreshToken = refreshToken
		result.Session = &session
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:    user.ID,
		Type:      audit.EventLoginSuccess,
		IPAddress: ip,
		UserAgent: userAgent,
	})

	return result, nil
}

// Refresh is the explicit variant of the gate's transparent fallback:
// verify the refresh credential, require a live session for it, record
// the activity and mint a fresh access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, ip string) (models.User, string, error) {
	claims, err := security.ParseRefreshToken(refreshToken, s.cfg.Auth.RefreshSecret)
	if err != nil {
		return models.User{}, "", ErrInvalidCredentials
	}

	session, err := s.sessions.FindActiveByTokenHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return models.User{}, "", ErrSessionNotFound
		}
		return models.User{}, "", err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, "", ErrSessionNotFound
		}
		return models.User{}, "", err
	}

	user, err = s.CheckAccountStatus(ctx, user)
	if err != nil {
		return models.User{}, "", err
	}

	if err := s.sessions.Touch(ctx, session.ID, ip); err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("touch session")
	}
	if err := s.sessions.AppendActivity(ctx, session.ID, models.ActivityRefresh, ip); err != nil {
		s.log.Error().Err(err).Str("session_id", session.ID).Msg("append refresh activity")
	}

	accessToken, err := security.IssueAccessToken(
		s.cfg.Auth.AccessSecret, user.ID, user.Email, user.Username, s.cfg.Auth.AccessTTL)
	if err != nil {
		return models.User{}, "", err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:    user.ID,
		Type:      audit.EventTokenRefreshed,
		IPAddress: ip,
	})

	return user, accessToken, nil
}

// Logout revokes the session backing the presented refresh credential
// and drops the user-bound CSRF token. Missing session is fine: an
// access-only login has nothing to revoke.
func (s *AuthService) Logout(ctx context.Context, userID string, refreshToken string, ip, userAgent string) error {
	if refreshToken != "" {
		session, err := s.sessions.FindActiveByTokenHash(ctx, security.HashToken(refreshToken))
		if err == nil && session.UserID == userID {
			if err := s.sessions.AppendActivity(ctx, session.ID, models.ActivityLogout, ip); err != nil {
				s.log.Error().Err(err).Str("session_id", session.ID).Msg("append logout activity")
			}
			if err := s.sessions.Revoke(ctx, session.ID); err != nil {
				return err
			}
		}
	}

	if err := s.csrf.DeleteForUser(ctx, userID); err != nil {
		s.log.Error().Err(err).Str("user_id", userID).Msg("delete csrf tokens")
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:    userID,
		Type:      audit.EventLogout,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	return nil
}

// RevokeSession revokes one of the caller's own sessions. The ownership
// scope means a foreign session id reports SESSION_NOT_FOUND; since ids
// are unguessable ksuids the enumeration risk of 404-style answers is
// accepted here (documented deviation from deny-first).
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID, ip, userAgent string) error {
	session, err := s.sessions.GetOwned(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return err
	}

	if err := s.sessions.Revoke(ctx, session.ID); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:    userID,
		Type:      audit.EventSessionRevoked,
		IPAddress: ip,
		UserAgent: userAgent,
	})
	return nil
}

// RevokeOtherSessions keeps only the session backing the caller's own
// refresh credential.
func (s *AuthService) RevokeOtherSessions(ctx context.Context, userID string, currentRefreshToken string, ip, userAgent string) (int, error) {
	current, err := s.sessions.FindActiveByTokenHash(ctx, security.HashToken(currentRefreshToken))
	if err != nil || current.UserID != userID {
		return 0, ErrSessionNotFound
	}

	revoked, err := s.sessions.RevokeAllExcept(ctx, userID, current.ID)
	if err != nil {
		return 0, err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:      userID,
		Type:        audit.EventSessionRevokedAll,
		Description: fmt.Sprintf("signed out %d other devices", len(revoked)),
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
	return len(revoked), nil
}

// RequestPasswordReset mails a single-use reset link. An unknown email
// succeeds silently so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}

	if err := s.otps.ConsumeAll(ctx, user.ID, models.OTPPurposePasswordReset); err != nil {
		return err
	}
	if err := s.otps.Create(ctx, models.OTP{
		ID:        ids.New(),
		UserID:    user.ID,
		Email:     user.Email,
		Code:      token,
		Purpose:   models.OTPPurposePasswordReset,
		ExpiresAt: time.Now().Add(s.cfg.TwoFactor.CodeTTL),
	}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.cfg.Mail.BaseURL, token)
	body := fmt.Sprintf("Reset your password: %s\nThe link expires in %s.", link, s.cfg.TwoFactor.CodeTTL)
	return s.mailer.Send(ctx, user.Email, "Reset your Shoplane password", body)
}

// ResetPassword consumes the mailed token, replaces the hash, clears any
// lockout counter, and revokes every session. Whoever held a stolen
// refresh credential is signed out by the reset.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	otp, err := s.otps.FindValidByCode(ctx, models.OTPPurposePasswordReset, token)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.otps.ConsumeAll(ctx, otp.UserID, models.OTPPurposePasswordReset); err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, otp.UserID, passwordHash); err != nil {
		return err
	}
	if err := s.users.ResetLoginAttempts(ctx, otp.UserID); err != nil {
		s.log.Error().Err(err).Str("user_id", otp.UserID).Msg("reset login attempts")
	}
	if _, err := s.sessions.RevokeAllExcept(ctx, otp.UserID, ""); err != nil {
		s.log.Error().Err(err).Str("user_id", otp.UserID).Msg("revoke sessions after reset")
	}

	s.recorder.Record(ctx, audit.Event{
		UserID: otp.UserID,
		Type:   audit.EventPasswordChanged,
	})
	return nil
}

type SessionView struct {
	Session models.Session
	Current bool
}

// ListSessions annotates each active session with whether it backs the
// caller's own refresh credential, most recently active first.
func (s *AuthService) ListSessions(ctx context.Context, userID string, currentRefreshToken string) ([]SessionView, error) {
	sessions, err := s.sessions.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	var currentHash []byte
	if currentRefreshToken != "" {
		currentHash = security.HashToken(currentRefreshToken)
	}

	views := make([]SessionView, 0, len(sessions))
	for _, session := range sessions {
		views = append(views, SessionView{
			Session: session,
			Current: currentHash != nil && string(session.RefreshTokenHash) == string(currentHash),
		})
	}
	return views, nil
}

// SetAccountStatus is the admin mutation behind suspend/ban actions.
func (s *AuthService) SetAccountStatus(ctx context.Context, actorID, userID string, status models.AccountStatus, reason string, duration *time.Duration) error {
	var expiresAt *time.Time
	if duration != nil {
		t := time.Now().Add(*duration)
		expiresAt = &t
	}
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	if err := s.users.SetStatus(ctx, userID, status, reasonPtr, expiresAt); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID:      userID,
		Type:        audit.EventAccountStatusSet,
		Description: fmt.Sprintf("status set to %s by %s", status, actorID),
	})
	return nil
}
