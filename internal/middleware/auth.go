package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/douanenc/backend/internal/authz"
	"github.com/douanenc/backend/internal/models"
	"github.com/douanenc/backend/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextFullName = "full_name"
	ContextRole     = "role"
)

// AuthMiddleware verifies JWT tokens and adds user info to context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextFullName, claims.FullName)
		c.Set(ContextRole, claims.Role)

		c.Next()
	}
}

// RequireRoles rejects requests whose authenticated role is not in the
// allowed set. Coarse route-level gating only: the services re-check
// the authorization table on every operation.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
		c.Abort()
	}
}

// CurrentActor rebuilds the acting identity from the request context.
func CurrentActor(c *gin.Context) (authz.Actor, bool) {
	rawID, exists := c.Get(ContextUserID)
	if !exists {
		return authz.Actor{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return authz.Actor{}, false
	}

	role, ok := c.MustGet(ContextRole).(models.Role)
	if !ok {
		return authz.Actor{}, false
	}

	return authz.Actor{
		ID:       userID,
		Username: c.GetString(ContextUsername),
		FullName: c.GetString(ContextFullName),
		Role:     role,
	}, true
}

// extractToken gets the token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	parts := strings.Split(bearerToken, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
