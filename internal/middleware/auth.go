package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"saveit/internal/logger"
	"saveit/internal/session"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	EmailKey  = "email"
)

// AuthMiddleware verifies the bearer access token and stores the user in the
// context. Refresh tokens are rejected.
func AuthMiddleware(issuer *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := issuer.Parse(parts[1], session.TokenTypeAccess)
		if err != nil {
			logger.Get().Debugw("rejected token", "error", err, "path", c.Request.URL.Path)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(EmailKey, claims.Email)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": message}})
}
