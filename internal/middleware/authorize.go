package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplane/api/internal/models"
)

func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		userVal, exists := c.Get(CtxUser)
		if !exists {
			abortUnauthenticated(c)
			return
		}
		user, ok := userVal.(models.User)
		if !ok {
			abortUnauthenticated(c)
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "forbidden",
			})
			return
		}

		c.Next()
	}
}
