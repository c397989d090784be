package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/orbitlabs/commune/backend/internal/auth"
	"github.com/orbitlabs/commune/backend/internal/util"
)

// Auth validates the bearer token and loads the authenticated user into
// the Gin context under "user" and "user_id"
func Auth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")

		user, err := authService.ValidateToken(token)
		if err != nil {
			util.RespondUnauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
