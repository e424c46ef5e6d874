package auth

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidCredentials indicates a failed login.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrNotFound indicates an unknown account.
	ErrNotFound = errors.New("auth: not found")
)

// User is a login account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
}

// CredentialStore reads login accounts.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// Revocations tracks tokens invalidated by logout before their expiry.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
