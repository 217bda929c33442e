package middleware

import (
	"canteen_system/internal/apperrors" // Error kinds
	"canteen_system/internal/auth"      // Authorization against the store
	"canteen_system/internal/domain"    // Roles
	"errors"                            // Matching error kinds
	"net/http"                          // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
)

// RequireRoles checks the user's role from the store on each request, so a
// deactivated user or a changed role takes effect before the token expires.
// With no roles any active user passes.
func RequireRoles(svc *auth.Service, roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := svc.Authorize(c.Request.Context(), userID, roles...)
		switch {
		case errors.Is(err, apperrors.ErrPermissionDenied):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied for role " + c.GetString(RoleKey)})
			return
		case err != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(RoleKey, string(user.Role)) // Current role, may differ from the token
		c.Next()
	}
}
