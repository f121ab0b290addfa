package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"ngo_tracker/internal/identity" // Token checks

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// Context keys set by the auth middlewares
const (
	EmailKey     = "email"     // Principal email
	PrincipalKey = "principal" // *domain.Principal
	UserKey      = "user"      // *domain.User, set by RequireRole
)

// JWTAuthMiddleware validates bearer tokens and stores the principal in the context
func JWTAuthMiddleware(ids *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		principal, err := ids.CurrentPrincipal(c.Request.Context(), tokenStr)
		if err != nil {
			if !errors.Is(err, identity.ErrInvalidCredentials) {
				logrus.WithField("error", err.Error()).Error("Principal lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to authenticate"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(EmailKey, principal.Email) // Store email in context
		c.Set(PrincipalKey, principal)
		c.Next() // Proceed to the next handler
	}
}
