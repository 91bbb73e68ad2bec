package models

import "time"

// RoleAdmin marks accounts allowed to use the management endpoints.
const RoleAdmin = "admin"

// User represents an account for the admin surface. Passwords are stored as
// bcrypt hashes only. Repeated login failures lock the account until
// LockedUntil passes.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"size:64;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Role         string     `gorm:"size:16;default:'admin'" json:"role"`
	Active       bool       `gorm:"default:true" json:"active"`
	Provider     string     `gorm:"size:32" json:"provider,omitempty"`
	ProviderID   string     `gorm:"size:255" json:"-"`
	FailedLogins int        `gorm:"default:0" json:"-"`
	LockedUntil  *time.Time `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Locked reports whether the account is under a login lockout at the given time.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
