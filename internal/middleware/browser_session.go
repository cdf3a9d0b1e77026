package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/config"
	"shoplane/api/internal/ids"
)

// BrowserSession guarantees every caller carries an anonymous browser
// session id. It is the CSRF binding for unauthenticated flows such as
// login itself.
func BrowserSession(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(BrowserCookie)
		if err != nil || id == "" {
			id = ids.New()
			c.SetSameSite(http.SameSiteStrictMode)
			// One year; the binding is superseded by the user binding
			// after login anyway.
			c.SetCookie(BrowserCookie, id, 365*24*3600, "/", cfg.Auth.CookieDomain, cfg.Auth.CookieSecure, true)
		}
		c.Set(CtxBrowserCookie, id)
		c.Next()
	}
}
