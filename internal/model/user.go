package model

import "time"

// UserID uniquely identifies a user across the system
type UserID string

// User represents an authenticated account
type User struct {
	ID          UserID
	DisplayName string
	IsGuest     bool   // true for anonymous sign-ins
	Provider    string // external identity provider, empty for password and guest accounts
	CreatedAt   time.Time
}

// RegisteredUser extends User with credential data
// Stored separately so the password hash never travels with the session
type RegisteredUser struct {
	UserID       UserID
	Email        string // login email (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
