package users

import "time"

// User represents a platform account.
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

// Filters narrows admin user listings.
type Filters struct {
	Query    string
	Role     string
	IsActive *bool
}
