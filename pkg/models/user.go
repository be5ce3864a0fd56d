package models

import "time"

// Role represents a user's role in the system
type Role string

const (
	RoleAdmin  Role = "admin"  // Full administrative access
	RoleEditor Role = "editor" // Content editing access
	RoleUser   Role = "user"   // Regular user access
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleUser:
		return true
	}
	return false
}

// Satisfies reports whether a user holding this role passes a check for
// the required role. Admin satisfies every role requirement.
func (r Role) Satisfies(required Role) bool {
	return r == RoleAdmin || r == required
}

// Status represents a user account's lifecycle state
type Status string

const (
	StatusActive   Status = "active"   // Account may authenticate and hold sessions
	StatusInactive Status = "inactive" // Account is suspended
	StatusBanned   Status = "banned"   // Account is blocked
)

// Valid reports whether the status is one of the known statuses
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusBanned:
		return true
	}
	return false
}

// User represents a user account
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose the hash
	RealName     string     `json:"real_name,omitempty"`
	Phone        string     `json:"phone,omitempty"`
	Avatar       string     `json:"avatar,omitempty"`
	Role         Role       `json:"role"`
	Status       Status     `json:"status"`
	LastLoginAt  *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive reports whether the account may authenticate. Only active
// accounts may log in or hold a valid session; status is re-checked on
// every protected request, not just at login.
func (u *User) IsActive() bool {
	return u.Status == StatusActive
}
