package profiles

import (
	"context"
	"errors"
)

// ErrNotFound indicates that no profile row exists for the id.
var ErrNotFound = errors.New("profiles: not found")

// Profile mirrors a row of the profiles table. Role is nullable.
type Profile struct {
	ID          string
	Email       string
	PhoneNumber string
	FirstName   string
	LastName    string
	Role        *string
}

// Store reads profile rows.
type Store interface {
	FindByID(ctx context.Context, id string) (Profile, error)
}
