package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/eddie-kay0462/iris/internal/auth"
	"github.com/eddie-kay0462/iris/internal/guard"
	"github.com/eddie-kay0462/iris/internal/observability"
	"github.com/eddie-kay0462/iris/internal/profiles"
	"github.com/eddie-kay0462/iris/internal/rbac"
	"github.com/eddie-kay0462/iris/internal/session"
	"github.com/eddie-kay0462/iris/internal/users"
	"github.com/eddie-kay0462/iris/internal/view"
	"github.com/eddie-kay0462/iris/internal/webhook"
)

// Stores groups the data-layer collaborators of the HTTP surface.
type Stores struct {
	Credentials auth.CredentialStore
	Profiles    profiles.Store
	Members     users.RepositoryPort
	Redis       *redis.Client
	Health      map[string]HealthCheck
}

// NewHandler assembles the authorization stack and returns the root handler.
func NewHandler(cfg *Config, logger *slog.Logger, stores Stores, metrics *observability.Metrics) (http.Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	sessions, err := session.NewResolver(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("session resolver: %w", err)
	}
	issuer, err := session.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("session issuer: %w", err)
	}

	var revocations auth.Revocations
	if stores.Redis != nil {
		revocations = auth.NewRedisRevocations(stores.Redis)
	}

	registry := rbac.DefaultRegistry()
	profileResolver := profiles.NewResolver(stores.Profiles, logger, cfg.ProfileLookupTimeout)
	authenticator := auth.NewAuthenticator(auth.AuthenticatorConfig{
		CookieName:  cfg.SessionCookie,
		Sessions:    sessions,
		Profiles:    profileResolver,
		Revocations: revocations,
		Logger:      logger,
		Fallbacks:   metrics,
	})
	rbacMiddleware := rbac.Middleware{
		Registry:      registry,
		Authenticator: authenticator,
		Logger:        logger,
		Metrics:       metrics,
	}

	authService := auth.NewService(auth.ServiceConfig{
		Credentials: stores.Credentials,
		Profiles:    profileResolver,
		Issuer:      issuer,
		Sessions:    sessions,
		Revocations: revocations,
	})
	cookies := session.CookieWriter{Name: cfg.SessionCookie, Secure: cfg.IsProduction()}

	edge := guard.New(guard.Config{
		Sessions:   sessions,
		Registry:   rbac.NewRegistry(rbac.DefaultTable(), cfg.AdminRoles()),
		CookieName: cfg.SessionCookie,
		Logger:     logger,
		Metrics:    metrics,
	})

	templates, err := view.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	params := RouterParams{
		Logger:             logger,
		Config:             cfg,
		Templates:          templates,
		Guard:              edge,
		RBACMiddleware:     rbacMiddleware,
		AuthHandler:        auth.NewHandler(logger, authService, rbacMiddleware, cookies),
		PermissionsHandler: rbac.NewPermissionsHandler(registry, rbacMiddleware),
		WebhookHandler:     webhook.NewHandler(logger, cfg.PaystackSecret, cfg.SMSWebhookSecret),
		Metrics:            metrics,
		HealthChecks:       stores.Health,
	}
	if stores.Members != nil {
		params.UsersHandler = users.NewHandler(logger, users.NewService(stores.Members, registry), rbacMiddleware)
	}
	return NewRouter(params), nil
}

// RedisHealth pings client.
func RedisHealth(client *redis.Client) HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
