package core

import (
	"errors"
	"time"
)

// User represents an authenticated principal returned to handlers and clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	// ErrInvalidCredentials is returned when email/password is wrong. Unknown
	// email and wrong password collapse into it so neither case is observable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when a signup email already has an account.
	ErrEmailTaken = errors.New("email already exists")
)
