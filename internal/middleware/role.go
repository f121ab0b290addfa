package middleware

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"ngo_tracker/internal/domain"   // Roles and sentinel errors
	"ngo_tracker/internal/identity" // Account lookup

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRole checks the caller's role from the database on each request.
// The account must also have a verified email.
func RequireRole(ids *identity.Service, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(EmailKey) // Set by JWTAuthMiddleware
		if email == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := ids.Authorize(c.Request.Context(), email, roles...)
		if err != nil {
			if errors.Is(err, domain.ErrForbidden) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: " + roleList(roles) + " role with a verified email required"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
			return
		}
		c.Set(UserKey, user)
		c.Next()
	}
}

func roleList(roles []domain.Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
