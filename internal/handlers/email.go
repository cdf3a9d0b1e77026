package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/service"
)

func (h HandlerSet) ResendEmailVerification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		respondError(c, "INVALID_CREDENTIALS", "not signed in")
		return
	}

	if user.EmailVerified {
		respondError(c, "EMAIL_ALREADY_VERIFIED", "email already verified")
		return
	}

	if err := h.twoFactor.SendEmailVerification(c.Request.Context(), user); err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID).Msg("send verification mail")
		respondInternal(c)
		return
	}

	respondOK(c, "verification mail sent", nil)
}

// VerifyEmail is hit from the mailed link, so it is a GET and skips the
// anti-forgery check; the token in the query string is the proof.
func (h HandlerSet) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		respondError(c, "INVALID_REQUEST", "token required")
		return
	}

	if err := h.twoFactor.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			respondError(c, "VERIFICATION_INVALID", "link invalid or expired")
			return
		}
		respondInternal(c)
		return
	}

	respondOK(c, "email verified", nil)
}
