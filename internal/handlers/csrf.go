package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/ids"
	"shoplane/api/internal/middleware"
	"shoplane/api/internal/models"
	"shoplane/api/internal/security"
)

// IssueCSRF hands out the anti-forgery token. The endpoint is public:
// the token binds to the anonymous browser session so the login request
// itself can present one, and additionally to the user when a valid
// access credential rides along.
func (h HandlerSet) IssueCSRF(c *gin.Context) {
	value, err := security.GenerateOpaqueToken(32)
	if err != nil {
		respondInternal(c)
		return
	}

	token := models.CSRFToken{
		ID:        ids.New(),
		Token:     value,
		ExpiresAt: time.Now().Add(h.cfg.CSRF.TokenTTL),
	}

	if browserVal, ok := c.Get(middleware.CtxBrowserCookie); ok {
		if browserID, ok := browserVal.(string); ok && browserID != "" {
			token.BrowserSessionID = &browserID
		}
	}

	// The route sits outside the auth gate, so identity is resolved
	// opportunistically from the access cookie alone.
	if accessToken, err := c.Cookie(middleware.AccessCookie); err == nil && accessToken != "" {
		if claims, err := security.ParseAccessToken(accessToken, h.cfg.Auth.AccessSecret); err == nil {
			userID := claims.Subject
			token.UserID = &userID
		}
	}

	if err := h.csrf.Issue(c.Request.Context(), token); err != nil {
		h.log.Error().Err(err).Msg("issue csrf token")
		respondInternal(c)
		return
	}

	respondOK(c, "csrf token issued", gin.H{
		"csrfToken": value,
		"expiresAt": token.ExpiresAt,
	})
}
