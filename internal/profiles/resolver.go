package profiles

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/eddie-kay0462/iris/internal/rbac"
)

// Reason explains why a resolution fell back to the public role.
type Reason string

// Degradation reasons.
const (
	ReasonNone            Reason = ""
	ReasonProfileMissing  Reason = "profile_missing"
	ReasonUpstreamFailure Reason = "upstream_failure"
)

// Resolution is the outcome of a profile lookup. Role is always set.
type Resolution struct {
	Profile  *Profile
	Role     rbac.Role
	Degraded bool
	Reason   Reason
}

// Resolver looks up profiles and derives the caller's role from them.
type Resolver struct {
	store   Store
	logger  *slog.Logger
	timeout time.Duration
}

// NewResolver builds a Resolver. A positive timeout bounds each lookup in
// addition to the caller's context.
func NewResolver(store Store, logger *slog.Logger, timeout time.Duration) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: store, logger: logger, timeout: timeout}
}

// Resolve never fails: a missing row or a store error yields RolePublic.
// Lookups are not retried.
func (r *Resolver) Resolve(ctx context.Context, id string) Resolution {
	if r == nil || r.store == nil || id == "" {
		return Resolution{Role: rbac.RolePublic, Degraded: true, Reason: ReasonProfileMissing}
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	p, err := r.store.FindByID(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		r.logger.Info("profile missing, degrading to public", slog.String("user_id", id))
		return Resolution{Role: rbac.RolePublic, Degraded: true, Reason: ReasonProfileMissing}
	default:
		r.logger.Warn("profile lookup failed, degrading to public", slog.String("user_id", id), slog.Any("error", err))
		return Resolution{Role: rbac.RolePublic, Degraded: true, Reason: ReasonUpstreamFailure}
	}

	role := rbac.RolePublic
	if p.Role != nil {
		role = rbac.ParseRole(*p.Role)
	}
	return Resolution{Profile: &p, Role: role}
}
