package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"field-service-server/services"
	"field-service-server/types"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID   = "user_id"
	ContextTenantID = "tenant_id"
	ContextRole     = "role"
)

// TokenValidator checks a staff token. *services.JWTService implements it.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*types.Claims, error)
}

var _ TokenValidator = (*services.JWTService)(nil)

func setClaims(c *gin.Context, claims *types.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextTenantID, claims.TenantID)
	c.Set(ContextRole, claims.Role)
}

// AuthMiddleware validates staff JWT tokens and scopes the request to the
// token's tenant
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authorization header required",
				"message": "Please provide a valid token",
			})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token format",
				"message": "Token must be in format: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := validator.ValidateAccessToken(tokenString)
		if err != nil {
			log.Printf("🔍 AuthMiddleware: token rejected for %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "Token is invalid or expired",
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// WebSocketAuthMiddleware validates JWT tokens from query parameters for WebSocket connections
func WebSocketAuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if tokenString == "" {
			log.Printf("🔌 WebSocketAuthMiddleware: No token in query parameters")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Token required",
				"message": "Please provide a valid token in query parameters",
			})
			c.Abort()
			return
		}

		claims, err := validator.ValidateAccessToken(tokenString)
		if err != nil {
			log.Printf("🔌 WebSocketAuthMiddleware: Token parsing error: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Invalid token",
				"message": "Token is invalid or expired",
			})
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// TenantID returns the tenant the authenticated request is scoped to.
func TenantID(c *gin.Context) uint {
	return c.GetUint(ContextTenantID)
}

// UserID returns the authenticated staff user, if any.
func UserID(c *gin.Context) *uint {
	id := c.GetUint(ContextUserID)
	if id == 0 {
		return nil
	}
	return &id
}

// RequireRole only lets through staff whose token carries one of roles. It
// must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if !allowed[role] {
			log.Printf("❌ User %d with role %q denied %s %s", c.GetUint(ContextUserID), role, c.Request.Method, c.Request.URL.Path)
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
