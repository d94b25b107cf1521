package session

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/go-dogwalks/internal/app/models"
)

// RequireAuth must run before any handler that reads the session user.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := Current(c); ok {
			c.Next()
			return
		}
		abortUnauthenticated(c)
	}
}

// RequireRole admits only sessions whose role is one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthenticated(c)
			return
		}
		if !slices.Contains(roles, user.Role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	// Store failures are reported as 500 so clients keep their cookie.
	if lookupError(c) != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Session lookup failed"})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
}
