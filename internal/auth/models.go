package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an application user.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	Plan         string
	StorageLimit int64
	PasswordHash string
	CreatedAt    time.Time
}

// SafeUser removes sensitive fields for response payloads.
func (u User) SafeUser() User {
	u.PasswordHash = ""
	return u
}

// Session is the server-side state behind a login cookie.
type Session struct {
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
}
