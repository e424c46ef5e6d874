package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eddie-kay0462/iris/internal/profiles"
	"github.com/eddie-kay0462/iris/internal/rbac"
	"github.com/eddie-kay0462/iris/internal/session"
)

// ServiceConfig groups the collaborators of a Service.
type ServiceConfig struct {
	Credentials CredentialStore
	Profiles    *profiles.Resolver
	Issuer      *session.Issuer
	Sessions    *session.Resolver
	Revocations Revocations
}

// Service wraps login and logout rules.
type Service struct {
	creds       CredentialStore
	profiles    *profiles.Resolver
	issuer      *session.Issuer
	sessions    *session.Resolver
	revocations Revocations
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		creds:       cfg.Credentials,
		profiles:    cfg.Profiles,
		issuer:      cfg.Issuer,
		sessions:    cfg.Sessions,
		revocations: cfg.Revocations,
	}
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	Claims    session.Claims
	Role      rbac.Role
	ExpiresAt time.Time
}

// Login validates credentials and issues a token carrying the profile role.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := s.profiles.Resolve(ctx, user.ID).Role
	token, claims, err := s.issuer.Issue(user.ID, user.Email, role)
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}
	return &LoginResult{Token: token, Claims: claims, Role: role, ExpiresAt: claims.ExpiresAt}, nil
}

// Logout revokes raw when it is a live token. Invalid, expired or already
// revoked tokens are accepted silently so that logout is idempotent.
func (s *Service) Logout(ctx context.Context, raw string) error {
	if raw == "" || s.sessions == nil || s.revocations == nil {
		return nil
	}
	claims, ok := s.sessions.Resolve(raw)
	if !ok || claims.ID == "" {
		return nil
	}
	return s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt)
}
