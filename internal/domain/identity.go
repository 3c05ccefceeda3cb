package domain

import "github.com/google/uuid"

// Role is the access level of an authenticated user
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// Identity is the authenticated caller passed explicitly into every service
// operation. Services never read caller information from ambient state.
type Identity struct {
	UserID uuid.UUID
	Role   Role
	Name   string
}

// IsAdmin reports whether the identity holds the admin role
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
