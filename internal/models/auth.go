package models

import "github.com/golang-jwt/jwt/v5"

// UserRole captures the caller's role on the admin console.
type UserRole string

const (
	RoleEnterpriseAdmin UserRole = "enterprise_admin"
	RoleStaff           UserRole = "staff"
)

// JWTClaims represents the session token issued by the identity provider.
type JWTClaims struct {
	UserID       string   `json:"user_id"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	EnterpriseID string   `json:"enterprise_customer_uuid"`
	jwt.RegisteredClaims
}
