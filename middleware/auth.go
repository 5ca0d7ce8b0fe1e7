package middleware

import (
	"net/http"
	"strings"

	"artisanhub/utils"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the bearer token and stores the authenticated
// identity and role on the request context for the handlers downstream.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  "authentication_required",
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		identityID, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil || identityID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  "authentication_failed",
			})
			return
		}

		c.Set("identityID", identityID)
		c.Set("identityRole", role)
		c.Next()
	}
}
