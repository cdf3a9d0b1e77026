package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/middleware"
	"shoplane/api/internal/models"
)

// Every JSON response uses the same envelope: {status, message, ...}.
// Most recoverable errors ride transport 200 and clients branch on the
// status field; only unauthenticated (401) and rate-limited (429) break
// that rule. This is a deliberate contract, not a missing status code.

func respondOK(c *gin.Context, message string, payload gin.H) {
	body := gin.H{
		"status":  "success",
		"message": message,
	}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func respondError(c *gin.Context, code, message string) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

func respondInternal(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": "internal error",
	})
}

// currentUser pulls the gate's identity out of the request context.
func currentUser(c *gin.Context) (models.User, bool) {
	userVal, exists := c.Get(middleware.CtxUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := userVal.(models.User)
	return user, ok
}

func userPayload(user models.User) gin.H {
	return gin.H{
		"id":               user.ID,
		"email":            user.Email,
		"username":         user.Username,
		"role":             user.Role,
		"emailVerified":    user.EmailVerified,
		"twoFactorEnabled": user.TwoFactorEnabled,
		"twoFactorMethod":  user.TwoFactorMethod,
	}
}
