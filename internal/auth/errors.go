package auth

import "errors"

var (
	// ErrUserExists indicates the username or email is already registered.
	ErrUserExists = errors.New("username or email already exists")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound signals that the user could not be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized represents a missing or invalid session or token.
	ErrUnauthorized = errors.New("unauthorized")
)
