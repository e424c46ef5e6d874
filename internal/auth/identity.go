package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/eddie-kay0462/iris/internal/profiles"
	"github.com/eddie-kay0462/iris/internal/rbac"
	"github.com/eddie-kay0462/iris/internal/session"
)

// FallbackRecorder counts identities degraded to the public role.
type FallbackRecorder interface {
	RecordFallback(reason string)
}

// AuthenticatorConfig groups the collaborators of an Authenticator.
type AuthenticatorConfig struct {
	CookieName  string
	Sessions    *session.Resolver
	Profiles    *profiles.Resolver
	Revocations Revocations
	Logger      *slog.Logger
	Fallbacks   FallbackRecorder
}

// Authenticator combines a verified session token with the caller's profile.
// The profile, not the token, decides the role.
type Authenticator struct {
	cookieName  string
	sessions    *session.Resolver
	profiles    *profiles.Resolver
	revocations Revocations
	logger      *slog.Logger
	fallbacks   FallbackRecorder
}

// NewAuthenticator builds an Authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		cookieName:  cfg.CookieName,
		sessions:    cfg.Sessions,
		profiles:    cfg.Profiles,
		revocations: cfg.Revocations,
		logger:      logger,
		fallbacks:   cfg.Fallbacks,
	}
}

// Authenticate implements rbac.Authenticator. The cookie token is tried
// first and the bearer token second; the first one that verifies wins.
func (a *Authenticator) Authenticate(r *http.Request) (rbac.Identity, error) {
	for _, raw := range session.Candidates(r, a.cookieName) {
		if id, err := a.AuthenticateToken(r.Context(), raw); err == nil {
			return id, nil
		}
	}
	return rbac.Identity{}, rbac.ErrUnauthenticated
}

// AuthenticateToken resolves raw into an identity. Any token problem yields
// rbac.ErrUnauthenticated; profile problems degrade the role to public.
func (a *Authenticator) AuthenticateToken(ctx context.Context, raw string) (rbac.Identity, error) {
	if a.sessions == nil || raw == "" {
		return rbac.Identity{}, rbac.ErrUnauthenticated
	}
	claims, err := a.sessions.Parse(raw)
	if err != nil {
		a.logger.Debug("session rejected", slog.String("reason", err.Error()))
		return rbac.Identity{}, rbac.ErrUnauthenticated
	}
	if a.revoked(ctx, claims.ID) {
		return rbac.Identity{}, rbac.ErrUnauthenticated
	}

	res := a.profiles.Resolve(ctx, claims.Subject)
	if res.Degraded && a.fallbacks != nil {
		a.fallbacks.RecordFallback(string(res.Reason))
	}

	id := rbac.Identity{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      res.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt,
		Degraded:  res.Degraded,
	}
	if res.Profile != nil {
		id.ProfileID = res.Profile.ID
		if res.Profile.Email != "" {
			id.Email = res.Profile.Email
		}
	}
	return id, nil
}

func (a *Authenticator) revoked(ctx context.Context, tokenID string) bool {
	if a.revocations == nil || tokenID == "" {
		return false
	}
	revoked, err := a.revocations.IsRevoked(ctx, tokenID)
	if err != nil {
		a.logger.Warn("revocation check failed", slog.Any("error", err))
		return false
	}
	return revoked
}

var _ rbac.Authenticator = (*Authenticator)(nil)
