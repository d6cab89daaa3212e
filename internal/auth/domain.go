package auth

import "time"

// User represents an authenticated user account.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	Role         string
	IsActive     bool
	IsBlocked    bool
	CreatedAt    time.Time
}
