package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/config"
	"shoplane/api/internal/models"
	"shoplane/api/internal/repository"
	"shoplane/api/internal/security"
	"shoplane/api/internal/service"
)

// Context keys populated by the gate for downstream handlers.
const (
	CtxUser          = "current_user"
	CtxAccessClaims  = "access_claims"
	CtxSessionID     = "session_id"
	CtxBrowserCookie = "browser_session_id"
)

// credState is the explicit shape of "which credentials arrived and in
// what condition", so the gate is a flat switch instead of nested
// conditionals.
type credState int

const (
	credNone credState = iota
	credAccessValid
	credAccessExpired
	credInvalid
)

// resolveAccessState classifies the access cookie alone. Only EXPIRED
// earns the refresh fallback; a bad signature is terminal.
func resolveAccessState(accessToken, secret string) (credState, *security.AccessClaims) {
	if accessToken == "" {
		return credNone, nil
	}
	claims, err := security.ParseAccessToken(accessToken, secret)
	switch {
	case err == nil:
		return credAccessValid, claims
	case errors.Is(err, security.ErrTokenExpired):
		return credAccessExpired, nil
	default:
		return credInvalid, nil
	}
}

// Auth is the authentication gate. It resolves caller identity from the
// credential cookies, transparently re-issues an expired access
// credential off a live session, and enforces the account-status gate
// before any handler runs.
func Auth(cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository, authSvc *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, _ := c.Cookie(AccessCookie)
		refreshToken := RefreshTokenFromRequest(c)

		state, claims := resolveAccessState(accessToken, cfg.Auth.AccessSecret)

		var user models.User
		switch state {
		case credAccessValid:
			loaded, err := users.GetByID(c.Request.Context(), claims.Subject)
			if err != nil {
				// Subject may have been deleted since the token was minted.
				ClearAuthCookies(c, cfg)
				abortUnauthenticated(c)
				return
			}
			user = loaded
			c.Set(CtxAccessClaims, *claims)

		case credAccessExpired, credNone:
			if refreshToken == "" {
				ClearAuthCookies(c, cfg)
				abortUnauthenticated(c)
				return
			}
			loaded, ok := refreshFallback(c, cfg, users, sessions, refreshToken)
			if !ok {
				return
			}
			user = loaded

		case credInvalid:
			ClearAuthCookies(c, cfg)
			abortUnauthenticated(c)
			return
		}

		user, err := authSvc.CheckAccountStatus(c.Request.Context(), user)
		if err != nil {
			abortRestricted(c, err)
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// refreshFallback verifies the refresh credential's signature, then
// requires a live session row for its exact value. Revocation wins over
// the token's own TTL here. On success a fresh access credential is set
// so the next request takes the cheap path again.
func refreshFallback(c *gin.Context, cfg *config.AppConfig, users *repository.UserRepository, sessions *repository.SessionRepository, refreshToken string) (models.User, bool) {
	claims, err := security.ParseRefreshToken(refreshToken, cfg.Auth.RefreshSecret)
	if err != nil {
		ClearAuthCookies(c, cfg)
		abortUnauthenticated(c)
		return models.User{}, false
	}

	session, err := sessions.FindActiveByTokenHash(c.Request.Context(), security.HashToken(refreshToken))
	if err != nil {
		ClearAuthCookies(c, cfg)
		abortUnauthenticated(c)
		return models.User{}, false
	}

	user, err := users.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		ClearAuthCookies(c, cfg)
		abortUnauthenticated(c)
		return models.User{}, false
	}

	ip := c.ClientIP()
	_ = sessions.Touch(c.Request.Context(), session.ID, ip)
	_ = sessions.AppendActivity(c.Request.Context(), session.ID, models.ActivityRefresh, ip)

	accessToken, err := security.IssueAccessToken(
		cfg.Auth.AccessSecret, user.ID, user.Email, user.Username, cfg.Auth.AccessTTL)
	if err == nil {
		SetAccessCookie(c, cfg, accessToken)
	}

	c.Set(CtxSessionID, session.ID)
	return user, true
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"code":    "INVALID_CREDENTIALS",
		"message": "authentication required",
	})
}

// abortRestricted surfaces the account-status gate with transport 200:
// clients branch on the envelope status field, not the HTTP code.
func abortRestricted(c *gin.Context, err error) {
	var restricted *service.AccountRestrictedError
	if errors.As(err, &restricted) {
		body := gin.H{
			"status":  "error",
			"code":    restrictionCode(restricted.Status),
			"message": restricted.Reason,
		}
		if restricted.ExpiresAt != nil {
			body["expiresAt"] = restricted.ExpiresAt
		}
		c.AbortWithStatusJSON(http.StatusOK, body)
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "internal error",
	})
}

func restrictionCode(status models.AccountStatus) string {
	switch status {
	case models.AccountStatusLocked:
		return "ACCOUNT_LOCKED"
	case models.AccountStatusSuspended:
		return "ACCOUNT_SUSPENDED"
	case models.AccountStatusBanned:
		return "ACCOUNT_BANNED"
	default:
		return "ACCOUNT_RESTRICTED"
	}
}
