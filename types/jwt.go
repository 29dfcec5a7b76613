package types

import "github.com/golang-jwt/jwt/v5"

// Role values carried in staff tokens.
const (
	RoleDispatcher = "dispatcher"
	RoleAdmin      = "admin"
)

// Claims represents the JWT claims of a staff user
type Claims struct {
	UserID   uint   `json:"user_id"`
	TenantID uint   `json:"tenant_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
