package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/service"
)

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword answers success whether or not the email exists; the
// difference is only observable in the mailbox.
func (h HandlerSet) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.log.Error().Err(err).Msg("request password reset")
		respondInternal(c)
		return
	}

	respondOK(c, "if the address is registered, a reset link is on its way", nil)
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "INVALID_REQUEST", err.Error())
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			respondError(c, "RESET_INVALID", "reset link invalid or expired")
			return
		}
		respondInternal(c)
		return
	}

	respondOK(c, "password updated; sign in with the new password", nil)
}
