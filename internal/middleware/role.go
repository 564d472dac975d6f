package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/domain"
	"equipmarket/internal/pkg/response"
)

// RequireRole ensures that the authenticated user has one of the given roles
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(sessionKey)
		if !exists {
			response.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			return
		}

		session := v.(domain.Session)
		for _, r := range roles {
			if session.EffectiveRole() == r {
				c.Next()
				return
			}
		}

		response.Abort(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
	}
}

// CatalogManagers allows sellers and admins
func CatalogManagers() gin.HandlerFunc {
	return RequireRole(domain.RoleSeller, domain.RoleAdmin)
}

// AdminOnly middleware requires admin role
func AdminOnly() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}
