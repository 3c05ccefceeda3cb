package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"rusithink-backend/internal/domain"
	"rusithink-backend/pkg/jwt"
	"rusithink-backend/pkg/response"
)

const identityKey = "identity"

// AuthMiddleware validates the session token and sets the caller identity in
// the gin context. The token comes from the Authorization header, or from the
// token query parameter for WebSocket upgrades where headers cannot be set.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			response.Unauthorized(c, "Authorization required")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(identityKey, domain.Identity{
			UserID: claims.UserID,
			Role:   domain.Role(claims.Role),
			Name:   claims.Name,
		})
		c.Next()
	}
}

// AdminOnly rejects non-admin callers. Must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok || !identity.IsAdmin() {
			response.Forbidden(c, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// IdentityFromContext extracts the authenticated caller set by AuthMiddleware
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return domain.Identity{}, false
	}
	identity, ok := value.(domain.Identity)
	return identity, ok
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
