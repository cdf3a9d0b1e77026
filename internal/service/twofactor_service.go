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
	// ErrInvalidCode covers wrong, expired, and replayed codes alike so a
	// caller cannot distinguish them.
	ErrInvalidCode         = errors.New("invalid verification code")
	ErrTwoFactorEnabled    = errors.New("two-factor already enabled")
	ErrTwoFactorNotEnabled = errors.New("two-factor not enabled")
	ErrUnsupportedMethod   = errors.New("unsupported two-factor method")
)

type TwoFactorService struct {
	users    UserStore
	otps     *repository.OTPRepository
	auth     *AuthService
	recorder *audit.Recorder
	mailer   mail.Mailer
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewTwoFactorService(
	users UserStore,
	otps *repository.OTPRepository,
	auth *AuthService,
	recorder *audit.Recorder,
	mailer mail.Mailer,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *TwoFactorService {
	return &TwoFactorService{
		users:    users,
		otps:     otps,
		auth:     auth,
		recorder: recorder,
		mailer:   mailer,
		cfg:      cfg,
		log:      log,
	}
}

type SetupResult struct {
	Method models.TwoFactorMethod
	// Secret and ProvisioningURL are set for the app method only.
	Secret          string
	ProvisioningURL string
}

// Setup starts enrollment. The app method returns an unconfirmed secret
// and its otpauth:// payload; the email method mails a short-lived code.
// Nothing flips on until VerifyAndEnable sees a valid code.
func (s *TwoFactorService) Setup(ctx context.Context, user models.User, method models.TwoFactorMethod) (SetupResult, error) {
	if user.TwoFactorEnabled {
		return SetupResult{}, ErrTwoFactorEnabled
	}

	switch method {
	case models.TwoFactorApp:
		secret, url, err := security.GenerateTOTPSecret(s.cfg.TwoFactor.Issuer, user.Email)
		if err != nil {
			return SetupResult{}, err
		}
		if err := s.users.SetPendingTOTPSecret(ctx, user.ID, secret); err != nil {
			return SetupResult{}, err
		}
		return SetupResult{Method: method, Secret: secret, ProvisioningURL: url}, nil

	case models.TwoFactorEmail:
		if err := s.sendCode(ctx, user, models.OTPPurposeTwoFactor,
			"Your Shoplane verification code", "Your verification code is %s. It expires in %s."); err != nil {
			return SetupResult{}, err
		}
		return SetupResult{Method: method}, nil

	default:
		return SetupResult{}, ErrUnsupportedMethod
	}
}

// VerifyAndEnable confirms enrollment with a code for the chosen method
// and flips the user row. The email method keeps no secret.
func (s *TwoFactorService) VerifyAndEnable(ctx context.Context, user models.User, method models.TwoFactorMethod, code string) error {
	if user.TwoFactorEnabled {
		return ErrTwoFactorEnabled
	}

	switch method {
	case models.TwoFactorApp:
		if user.TOTPSecret == nil || !security.ValidateTOTP(code, *user.TOTPSecret) {
			return ErrInvalidCode
		}
		if err := s.users.EnableTwoFactor(ctx, user.ID, method, user.TOTPSecret); err != nil {
			return err
		}

	case models.TwoFactorEmail:
		if err := s.consumeEmailCode(ctx, user.ID, models.OTPPurposeTwoFactor, code); err != nil {
			return err
		}
		if err := s.users.EnableTwoFactor(ctx, user.ID, method, nil); err != nil {
			return err
		}

	default:
		return ErrUnsupportedMethod
	}

	s.recorder.Record(ctx, audit.Event{
		UserID: user.ID,
		Type:   audit.EventTwoFactorEnabled,
	})
	return nil
}

// SendLoginCode mails a fresh code during the login flow for users on
// the email method. App-method users generate their own.
func (s *TwoFactorService) SendLoginCode(ctx context.Context, user models.User) error {
	return s.sendCode(ctx, user, models.OTPPurposeTwoFactor,
		"Your Shoplane sign-in code", "Your sign-in code is %s. It expires in %s.")
}

// VerifyLogin completes a two-factor sign-in. On success the access
// credential is always issued; a refresh credential and session row only
// when the caller asked to be remembered.
func (s *TwoFactorService) VerifyLogin(ctx context.Context, email, code string, rememberMe bool, deviceName, ip, userAgent string) (LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCode
		}
		return LoginResult{}, err
	}

	if !user.TwoFactorEnabled {
		return LoginResult{}, ErrTwoFactorNotEnabled
	}

	user, err = s.auth.CheckAccountStatus(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	switch user.TwoFactorMethod {
	case models.TwoFactorApp:
		if user.TOTPSecret == nil || !security.ValidateTOTP(code, *user.TOTPSecret) {
			return LoginResult{}, s.recordCodeFailure(ctx, user, ip, userAgent)
		}
	case models.TwoFactorEmail:
		if err := s.consumeEmailCode(ctx, user.ID, models.OTPPurposeTwoFactor, code); err != nil {
			return LoginResult{}, s.recordCodeFailure(ctx, user, ip, userAgent)
		}
	default:
		return LoginResult{}, ErrUnsupportedMethod
	}

	return s.auth.IssueCredentials(ctx, user, rememberMe, deviceName, ip, userAgent)
}

// recordCodeFailure feeds the shared lockout counter: a wrong code after
// a correct password still burns one of the attempts before the account
// locks.
func (s *TwoFactorService) recordCodeFailure(ctx context.Context, user models.User, ip, userAgent string) error {
	attempts := s.auth.escalateFailure(ctx, user, ip, userAgent)

	s.recorder.Record(ctx, audit.Event{
		UserID:      user.ID,
		Type:        audit.EventTwoFactorFailed,
		Description: fmt.Sprintf("failed second-factor attempt %d of %d", attempts, s.cfg.Lockout.Threshold),
		IPAddress:   ip,
		UserAgent:   userAgent,
	})
	return ErrInvalidCode
}

// RequestDisable starts the deferred disable flow: a single-use token is
// mailed to the account owner. An attacker holding a live session but
// not the mailbox cannot turn the second factor off.
func (s *TwoFactorService) RequestDisable(ctx context.Context, user models.User) error {
	if !user.TwoFactorEnabled {
		return ErrTwoFactorNotEnabled
	}

	token, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}

	if err := s.otps.ConsumeAll(ctx, user.ID, models.OTPPurposeTwoFactorDisable); err != nil {
		return err
	}
	if err := s.otps.Create(ctx, models.OTP{
		ID:        ids.New(),
		UserID:    user.ID,
		Email:     user.Email,
		Code:      token,
		Purpose:   models.OTPPurposeTwoFactorDisable,
		ExpiresAt: time.Now().Add(s.cfg.TwoFactor.CodeTTL),
	}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/auth/2fa/disable/confirm?token=%s", s.cfg.Mail.BaseURL, token)
	body := fmt.Sprintf("Confirm turning off two-factor authentication: %s\nThe link expires in %s.",
		link, s.cfg.TwoFactor.CodeTTL)
	return s.mailer.Send(ctx, user.Email, "Confirm two-factor disable", body)
}

// ConfirmDisable consumes the mailed token and clears the 2FA fields.
func (s *TwoFactorService) ConfirmDisable(ctx context.Context, token string) error {
	otp, err := s.otps.FindValidByCode(ctx, models.OTPPurposeTwoFactorDisable, token)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if err := s.otps.ConsumeAll(ctx, otp.UserID, models.OTPPurposeTwoFactorDisable); err != nil {
		return err
	}
	if err := s.users.DisableTwoFactor(ctx, otp.UserID); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID: otp.UserID,
		Type:   audit.EventTwoFactorDisabled,
	})
	return nil
}

// SendEmailVerification mails a fresh verification link, superseding any
// outstanding one.
func (s *TwoFactorService) SendEmailVerification(ctx context.Context, user models.User) error {
	token, err := security.GenerateOpaqueToken(32)
	if err != nil {
		return err
	}

	if err := s.otps.ConsumeAll(ctx, user.ID, models.OTPPurposeEmailVerification); err != nil {
		return err
	}
	if err := s.otps.Create(ctx, models.OTP{
		ID:        ids.New(),
		UserID:    user.ID,
		Email:     user.Email,
		Code:      token,
		Purpose:   models.OTPPurposeEmailVerification,
		ExpiresAt: time.Now().Add(s.cfg.TwoFactor.CodeTTL),
	}); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/api/v1/auth/email/verify?token=%s", s.cfg.Mail.BaseURL, token)
	return s.mailer.Send(ctx, user.Email, "Verify your email address",
		fmt.Sprintf("Confirm your email address: %s", link))
}

func (s *TwoFactorService) VerifyEmail(ctx context.Context, token string) error {
	otp, err := s.otps.FindValidByCode(ctx, models.OTPPurposeEmailVerification, token)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return ErrInvalidCode
		}
		return err
	}

	if err := s.otps.ConsumeAll(ctx, otp.UserID, models.OTPPurposeEmailVerification); err != nil {
		return err
	}
	if err := s.users.MarkEmailVerified(ctx, otp.UserID); err != nil {
		return err
	}

	s.recorder.Record(ctx, audit.Event{
		UserID: otp.UserID,
		Type:   audit.EventEmailVerified,
	})
	return nil
}

func (s *TwoFactorService) sendCode(ctx context.Context, user models.User, purpose models.OTPPurpose, subject, bodyFormat string) error {
	code, err := security.GenerateNumericCode(6)
	if err != nil {
		return err
	}

	if err := s.otps.Create(ctx, models.OTP{
		ID:        ids.New(),
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(s.cfg.TwoFactor.CodeTTL),
	}); err != nil {
		return err
	}

	return s.mailer.Send(ctx, user.Email, subject, fmt.Sprintf(bodyFormat, code, s.cfg.TwoFactor.CodeTTL))
}

func (s *TwoFactorService) consumeEmailCode(ctx context.Context, userID string, purpose models.OTPPurpose, code string) error {
	if _, err := s.otps.FindValid(ctx, userID, purpose, code); err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	return s.otps.ConsumeAll(ctx, userID, purpose)
}
