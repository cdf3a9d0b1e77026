package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/models"
	"shoplane/api/internal/repository"
)

const csrfHeader = "X-CSRF-Token"

// CSRF validates the anti-forgery token on every state-changing request.
// Reads are exempt because they must not mutate state. The token is
// DB-backed rather than double-submit so logout and session revocation
// can invalidate it server-side.
func CSRF(csrfRepo *repository.CSRFRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token := extractCSRFToken(c.GetHeader(csrfHeader))
		if token == "" {
			abortCSRF(c, "CSRF_MISSING", "csrf token required")
			return
		}

		row, err := csrfRepo.FindValid(c.Request.Context(), token)
		if err != nil {
			abortCSRF(c, "CSRF_INVALID", "csrf token invalid or expired")
			return
		}

		if !csrfBindingMatches(c, row) {
			abortCSRF(c, "CSRF_INVALID", "csrf token invalid or expired")
			return
		}

		c.Next()
	}
}

// csrfBindingMatches prefers the user binding when the caller is
// authenticated and accepts the anonymous browser-session binding as
// well. Cross-binding acceptance is deliberate: a token fetched just
// before login stays usable for the login request itself.
func csrfBindingMatches(c *gin.Context, row models.CSRFToken) bool {
	if userVal, ok := c.Get(CtxUser); ok {
		if user, ok := userVal.(models.User); ok {
			if row.UserID != nil && *row.UserID == user.ID {
				return true
			}
		}
	}

	if browserVal, ok := c.Get(CtxBrowserCookie); ok {
		if browserID, ok := browserVal.(string); ok && browserID != "" {
			if row.BrowserSessionID != nil && *row.BrowserSessionID == browserID {
				return true
			}
		}
	}

	return false
}

func extractCSRFToken(header string) string {
	if header == "" {
		return ""
	}
	// Conventional form is "bearer <token>"; accept a bare token too.
	if len(header) >= 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(header)
}

// CSRF failures are soft: transport 200 with an error envelope, like
// the rest of the recoverable error surface.
func abortCSRF(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusOK, gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}
