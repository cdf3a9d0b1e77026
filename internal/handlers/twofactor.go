package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/models"
	"shoplane/api/internal/service"
)

type twoFactorSetupRequest struct {
	Method models.TwoFactorMethod `json:"method" binding:"required"`
}

func (h HandlerSet) SetupTwoFactor(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	var req twoFactorSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.twoFactor.Setup(c.Request.Context(), user, req.Method)
	if err != nil {
		h.respondTwoFactorError(c, err)
		return
	}

	payload := gin.H{"method": result.Method}
	if result.Method == models.TwoFactorApp {
		payload["secret"] = result.Secret
		payload["provisioningUrl"] = result.ProvisioningURL
	}
	respondOK(c, "two-factor setup started", payload)
}

type twoFactorVerifyRequest struct {
	Method models.TwoFactorMethod `json:"method" binding:"required"`
	Code   string                 `json:"code" binding:"required"`
}

func (h HandlerSet) VerifyAndEnableTwoFactor(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	var req twoFactorVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.twoFactor.VerifyAndEnable(c.Request.Context(), user, req.Method, req.Code); err != nil {
		h.respondTwoFactorError(c, err)
		return
	}

	respondOK(c, "two-factor enabled", nil)
}

// RequestTwoFactorDisable mails a confirmation link instead of turning
// the factor off in place. The session alone is not enough to disarm it.
func (h HandlerSet) RequestTwoFactorDisable(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	if err := h.twoFactor.RequestDisable(c.Request.Context(), user); err != nil {
		h.respondTwoFactorError(c, err)
		return
	}

	respondOK(c, "confirmation link sent", nil)
}

func (h HandlerSet) ConfirmTwoFactorDisable(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, "INVALID_REQUEST", "token required")
		return
	}

	if err := h.twoFactor.ConfirmDisable(c.Request.Context(), token); err != nil {
		h.respondTwoFactorError(c, err)
		return
	}

	respondOK(c, "two-factor disabled", nil)
}

func (h HandlerSet) respondTwoFactorError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCode):
		respondError(c, "TWO_FACTOR_INVALID_CODE", "invalid or expired code")
	case errors.Is(err, service.ErrTwoFactorEnabled):
		respondError(c, "TWO_FACTOR_ALREADY_ENABLED", "two-factor already enabled")
	case errors.Is(err, service.ErrTwoFactorNotEnabled):
		respondError(c, "TWO_FACTOR_NOT_ENABLED", "two-factor not enabled")
	case errors.Is(err, service.ErrUnsupportedMethod):
		respondError(c, "INVALID_REQUEST", "unsupported two-factor method")
	default:
		h.log.Error().Err(err).Msg("two-factor operation")
		respondInternal(c)
	}
}
