package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserRole represents the role of an account in the system
type UserRole string

const (
	RoleAdmin UserRole = "admin" // Reviews and decides pass requests, sees everything
	RoleUser  UserRole = "user"  // Requests passes, sees only their own
)

// User - an authenticated account. Users request passes; admins decide
// them. Field scanners act with no account and are logged as "system".
type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never serialized
	FullName     string     `json:"full_name"`
	Role         UserRole   `json:"role"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// IsAdmin reports whether the user holds the admin capability
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate checks the account data
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrInvalidEmail
	}
	if u.FullName == "" {
		return ErrInvalidUserData
	}
	if u.Role != RoleAdmin && u.Role != RoleUser {
		return ErrInvalidRole
	}
	return nil
}

// Actor is the capability view of the current caller: identity plus the
// admin flag. It is all the lifecycle engine and query layer ever need
// to know about authentication.
type Actor struct {
	ID   uuid.UUID
	Role UserRole
}

// IsAdmin reports whether the actor holds the admin capability
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
