package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/config"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
	BrowserCookie = "browserSession"
)

// Both credential cookies are httpOnly and SameSite=Strict; Secure
// follows the environment. The refresh cookie carries the session TTL,
// the access cookie its own short TTL.
func SetAccessCookie(c *gin.Context, cfg *config.AppConfig, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookie, token, int(cfg.Auth.AccessTTL.Seconds()), "/", cfg.Auth.CookieDomain, cfg.Auth.CookieSecure, true)
}

func SetRefreshCookie(c *gin.Context, cfg *config.AppConfig, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookie, token, int(cfg.Auth.RefreshTTL.Seconds()), "/", cfg.Auth.CookieDomain, cfg.Auth.CookieSecure, true)
}

func ClearAuthCookies(c *gin.Context, cfg *config.AppConfig) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(AccessCookie, "", -1, "/", cfg.Auth.CookieDomain, cfg.Auth.CookieSecure, true)
	c.SetCookie(RefreshCookie, "", -1, "/", cfg.Auth.CookieDomain, cfg.Auth.CookieSecure, true)
}

func RefreshTokenFromRequest(c *gin.Context) string {
	token, err := c.Cookie(RefreshCookie)
	if err != nil {
		return ""
	}
	return token
}
