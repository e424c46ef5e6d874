package rbac

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrUnauthenticated is returned by an Authenticator when the request carries
// no usable session. Missing, malformed, expired and revoked tokens are not
// distinguished.
var ErrUnauthenticated = errors.New("rbac: unauthenticated")

// Identity is the authenticated caller of a single request. It is built per
// request and never shared between requests.
type Identity struct {
	UserID    string
	Email     string
	Role      Role
	ProfileID string
	TokenID   string
	ExpiresAt time.Time
	// Degraded is set when the role fell back to public because the profile
	// could not be read.
	Degraded bool
}

// Authenticator resolves the Identity behind a request.
type Authenticator interface {
	Authenticate(r *http.Request) (Identity, error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(r *http.Request) (Identity, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (Identity, error) { return f(r) }

type identityCtxKey struct{}

// ContextWithIdentity stores id in ctx.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext returns the identity injected by the combinators.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}
