package types

import "time"

// User represents a registered account.
// Users are created on registration and are immutable afterwards.
type User struct {
	// ID is the opaque unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Email is the login identifier. It is unique and compared exactly as stored.
	Email string `json:"email" db:"email"`

	// FirstName is the user's given name.
	FirstName string `json:"firstName" db:"first_name"`

	// LastName is the user's family name.
	LastName string `json:"lastName" db:"last_name"`

	// PasswordHash stores the salted bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
