package model

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Roles carried in the JWT "role" claim and stored in users.role.
const (
	RoleMember = "MEMBER"
	RoleStaff  = "STAFF"
	RoleAdmin  = "ADMIN"
)

// IsStaffRole reports whether role may manage other members' bookings.
func IsStaffRole(role string) bool {
	return role == RoleStaff || role == RoleAdmin
}

// User is a row of users.  Email is stored lower-cased and the password
// only as a bcrypt hash; handlers never serialize this type directly.
type User struct {
	ID           uint64
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken is a row of refresh_tokens.  Only the SHA-256 hash of
// the raw token is kept.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt null.Time
	CreatedAt time.Time
}

// Live reports whether the token can still be exchanged at now.
func (t RefreshToken) Live(now time.Time) bool {
	return !t.RevokedAt.Valid && now.Before(t.ExpiresAt)
}
