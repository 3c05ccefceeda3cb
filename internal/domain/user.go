package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user entity in the system
// Maps to the Postgres users table
type User struct {
	UserID       uuid.UUID `json:"id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"` // admin, client
	PasswordHash string    `json:"-" db:"password_hash"`
	CompanyName  *string   `json:"company_name,omitempty" db:"company_name"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Address      *string   `json:"address,omitempty" db:"address"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// UserCreate represents data needed to register a new client
type UserCreate struct {
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	FirstName   string  `json:"first_name" binding:"required"`
	LastName    string  `json:"last_name" binding:"required"`
	CompanyName *string `json:"company_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
}

// UserLogin represents client login credentials
type UserLogin struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin represents admin console credentials
type AdminLogin struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the safe user representation returned to clients
type UserResponse struct {
	UserID      uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	CompanyName *string   `json:"company_name,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse (removes sensitive data)
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		UserID:      u.UserID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		CompanyName: u.CompanyName,
		Phone:       u.Phone,
		Address:     u.Address,
		CreatedAt:   u.CreatedAt,
	}
}

// Identity derives the authenticated caller view of this user
func (u *User) Identity() Identity {
	return Identity{
		UserID: u.UserID,
		Role:   u.Role,
		Name:   u.Name,
	}
}
