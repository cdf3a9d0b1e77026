package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/middleware"
	"shoplane/api/internal/models"
	"shoplane/api/internal/service"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			respondError(c, "EMAIL_TAKEN", "email already registered")
			return
		}
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.twoFactor.SendEmailVerification(c.Request.Context(), user); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("send verification mail")
	}

	respondOK(c, "account created", gin.H{"user": userPayload(user)})
}

type loginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
	DeviceName string `json:"deviceName"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		DeviceName: req.DeviceName,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	if result.TwoFactorRequired {
		// Email-method users get their code mailed now; app users
		// already have a generator in hand.
		if result.TwoFactorMethod == models.TwoFactorEmail {
			if err := h.twoFactor.SendLoginCode(c.Request.Context(), result.User); err != nil {
				h.log.Error().Err(err).Str("user_id", result.User.ID).Msg("send login code")
				respondInternal(c)
				return
			}
		}
		respondError(c, "TWO_FACTOR_REQUIRED", "second factor required")
		return
	}

	h.sendCredentials(c, result, "signed in")
}

type twoFactorLoginRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Code       string `json:"code" binding:"required"`
	RememberMe bool   `json:"rememberMe"`
	DeviceName string `json:"deviceName"`
}

func (h HandlerSet) VerifyTwoFactorLogin(c *gin.Context) {
	var req twoFactorLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.twoFactor.VerifyLogin(c.Request.Context(),
		req.Email, req.Code, req.RememberMe, req.DeviceName, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	h.sendCredentials(c, result, "signed in")
}

func (h HandlerSet) Refresh(c *gin.Context) {
	refreshToken := middleware.RefreshTokenFromRequest(c)
	if refreshToken == "" {
		respondError(c, "SESSION_NOT_FOUND", "no refresh credential")
		return
	}

	user, accessToken, err := h.auth.Refresh(c.Request.Context(), refreshToken, c.ClientIP())
	if err != nil {
		middleware.ClearAuthCookies(c, h.cfg)
		h.respondAuthError(c, err)
		return
	}

	middleware.SetAccessCookie(c, h.cfg, accessToken)
	respondOK(c, "token refreshed", gin.H{"user": userPayload(user)})
}

func (h HandlerSet) Logout(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	err := h.auth.Logout(c.Request.Context(), user.ID,
		middleware.RefreshTokenFromRequest(c), c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		respondInternal(c)
		return
	}

	middleware.ClearAuthCookies(c, h.cfg)
	respondOK(c, "signed out", nil)
}

// Me is the verify-caller endpoint. The auth_check activity is recorded
// here rather than in the gate to keep the per-request write budget flat.
func (h HandlerSet) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	if refreshToken := middleware.RefreshTokenFromRequest(c); refreshToken != "" {
		if sessions, err := h.auth.ListSessions(c.Request.Context(), user.ID, refreshToken); err == nil {
			for _, view := range sessions {
				if view.Current {
					_ = h.sessions.AppendActivity(c.Request.Context(), view.Session.ID, models.ActivityAuthCheck, c.ClientIP())
					break
				}
			}
		}
	}

	respondOK(c, "authenticated", gin.H{"user": userPayload(user)})
}

type sessionResponse struct {
	ID         string    `json:"id"`
	DeviceName string    `json:"deviceName"`
	IPAddress  string    `json:"ipAddress"`
	UserAgent  string    `json:"userAgent"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Current    bool      `json:"current"`
}

func (h HandlerSet) ListSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	views, err := h.auth.ListSessions(c.Request.Context(), user.ID, middleware.RefreshTokenFromRequest(c))
	if err != nil {
		respondInternal(c)
		return
	}

	resp := make([]sessionResponse, 0, len(views))
	for _, view := range views {
		resp = append(resp, sessionResponse{
			ID:         view.Session.ID,
			DeviceName: view.Session.DeviceName,
			IPAddress:  view.Session.IPAddress,
			UserAgent:  view.Session.UserAgent,
			CreatedAt:  view.Session.CreatedAt,
			LastSeenAt: view.Session.LastSeenAt,
			ExpiresAt:  view.Session.ExpiresAt,
			Current:    view.Current,
		})
	}

	respondOK(c, "active sessions", gin.H{"sessions": resp})
}

func (h HandlerSet) RevokeSession(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	sessionID := c.Param("id")
	if sessionID == "" {
		respondError(c, "INVALID_REQUEST", "session id required")
		return
	}

	err := h.auth.RevokeSession(c.Request.Context(), user.ID, sessionID, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondError(c, "SESSION_NOT_FOUND", "session not found")
			return
		}
		respondInternal(c)
		return
	}

	respondOK(c, "session revoked", nil)
}

func (h HandlerSet) RevokeOtherSessions(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	refreshToken := middleware.RefreshTokenFromRequest(c)
	if refreshToken == "" {
		respondError(c, "SESSION_NOT_FOUND", "current session unknown; sign in with remember me first")
		return
	}

	revoked, err := h.auth.RevokeOtherSessions(c.Request.Context(), user.ID, refreshToken, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			respondError(c, "SESSION_NOT_FOUND", "current session not found")
			return
		}
		respondInternal(c)
		return
	}

	respondOK(c, "other sessions revoked", gin.H{"revoked": revoked})
}

// sendCredentials sets the cookie pair and echoes the user. The refresh
// cookie only exists when a session row backs it.
func (h HandlerSet) sendCredentials(c *gin.Context, result service.LoginResult, message string) {
	middleware.SetAccessCookie(c, h.cfg, result.AccessToken)
	if result.RefreshToken != "" {
		middleware.SetRefreshCookie(c, h.cfg, result.RefreshToken)
	}
	respondOK(c, message, gin.H{"user": userPayload(result.User)})
}

// respondAuthError maps service errors onto envelope codes. Account
// restrictions carry their reason and expiry for display.
func (h HandlerSet) respondAuthError(c *gin.Context, err error) {
	var restricted *service.AccountRestrictedError
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(c, "SESSION_NOT_FOUND", "session expired or revoked")
	case errors.Is(err, service.ErrInvalidCode):
		respondError(c, "TWO_FACTOR_INVALID_CODE", "invalid verification code")
	case errors.Is(err, service.ErrTwoFactorNotEnabled):
		respondError(c, "INVALID_REQUEST", "two-factor not enabled")
	case errors.As(err, &restricted):
		body := gin.H{
			"status":  "error",
			"code":    "ACCOUNT_" + strings.ToUpper(string(restricted.Status)),
			"message": restricted.Reason,
		}
		if restricted.ExpiresAt != nil {
			body["expiresAt"] = restricted.ExpiresAt
		}
		c.JSON(http.StatusOK, body)
	default:
		respondInternal(c)
	}
}
