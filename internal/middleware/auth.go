package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"equipmarket/internal/domain"
	"equipmarket/internal/pkg/jwt"
	"equipmarket/internal/pkg/response"
)

const sessionKey = "session"

// JWTAuth requires a valid bearer token and stores the session in the context.
func JWTAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			return
		}

		session, code, ok := parseBearer(jwtService, header)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, code, "Invalid or expired token")
			return
		}

		setSession(c, session)
		c.Next()
	}
}

// OptionalAuth accepts anonymous requests as guest buyers. A header that is
// present but invalid is still rejected.
func OptionalAuth(jwtService *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			setSession(c, domain.GuestSession())
			c.Next()
			return
		}

		session, code, ok := parseBearer(jwtService, header)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, code, "Invalid or expired token")
			return
		}

		setSession(c, session)
		c.Next()
	}
}

// SessionFrom returns the session stored by JWTAuth or OptionalAuth, or a
// guest session when none was set.
func SessionFrom(c *gin.Context) domain.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(domain.Session); ok {
			return s
		}
	}
	return domain.GuestSession()
}

func parseBearer(jwtService *jwt.Service, header string) (domain.Session, string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.Session{}, "INVALID_AUTH_FORMAT", false
	}

	claims, err := jwtService.ValidateToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return domain.Session{}, "INVALID_TOKEN", false
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Session{}, "INVALID_TOKEN", false
	}
	return domain.Session{Username: claims.Username, Role: role}, "", true
}

func setSession(c *gin.Context, s domain.Session) {
	c.Set(sessionKey, s)
	c.Set("username", s.Username)
	c.Set("role", string(s.EffectiveRole()))
}
