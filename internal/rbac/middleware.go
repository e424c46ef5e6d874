package rbac

import (
	"log/slog"
	"net/http"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
)

// Response messages of the combinators.
const (
	MsgAuthRequired      = "Authentication required"
	MsgAdminRequired     = "Admin access required"
	MsgInsufficientRole  = "Insufficient role"
	MsgMissingPermission = "Missing permission"
)

const (
	decisionLayerHandler   = "handler"
	outcomeAllow           = "allow"
	outcomeUnauthenticated = "unauthenticated"
	outcomeForbidden       = "forbidden"
)

// DecisionRecorder receives one call per authorization decision.
type DecisionRecorder interface {
	RecordDecision(layer, outcome string)
}

// Denial describes why an authenticated identity was refused.
type Denial struct {
	Message            string
	AllowedRoles       []Role
	RequiredPermission Permission
}

// Check inspects an authenticated identity and returns a Denial to refuse it.
type Check func(reg *Registry, id Identity) *Denial

// AdminCheck admits admin-capable roles.
func AdminCheck() Check {
	return func(reg *Registry, id Identity) *Denial {
		if reg.IsAdminCapable(id.Role) {
			return nil
		}
		return &Denial{Message: MsgAdminRequired}
	}
}

// RoleCheck admits the listed roles only. An empty list admits nobody.
func RoleCheck(allowed ...Role) Check {
	set := make(map[Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	listed := append([]Role(nil), allowed...)
	return func(_ *Registry, id Identity) *Denial {
		if _, ok := set[id.Role]; ok {
			return nil
		}
		return &Denial{Message: MsgInsufficientRole, AllowedRoles: listed}
	}
}

// PermissionCheck admits roles holding perm.
func PermissionCheck(perm Permission) Check {
	return func(reg *Registry, id Identity) *Denial {
		if reg.HasPermission(id.Role, perm) {
			return nil
		}
		return &Denial{Message: MsgMissingPermission, RequiredPermission: perm}
	}
}

// Middleware wires the authorization combinators for HTTP handlers.
type Middleware struct {
	Registry      *Registry
	Authenticator Authenticator
	Logger        *slog.Logger
	Metrics       DecisionRecorder
}

// WithAuth requires an authenticated identity and injects it into the request context.
func (m Middleware) WithAuth(next http.Handler) http.Handler {
	return m.Enforce(next)
}

// WithAdminAccess requires an admin-capable role.
func (m Middleware) WithAdminAccess(next http.Handler) http.Handler {
	return m.Enforce(next, AdminCheck())
}

// WithRole requires one of allowed.
func (m Middleware) WithRole(next http.Handler, allowed ...Role) http.Handler {
	return m.Enforce(next, RoleCheck(allowed...))
}

// WithPermission requires perm.
func (m Middleware) WithPermission(next http.Handler, perm Permission) http.Handler {
	return m.Enforce(next, PermissionCheck(perm))
}

// RequireAuth is WithAuth in chi middleware form.
func (m Middleware) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return m.WithAuth(next) }
}

// RequireAdmin is WithAdminAccess in chi middleware form.
func (m Middleware) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return m.WithAdminAccess(next) }
}

// RequireRole is WithRole in chi middleware form.
func (m Middleware) RequireRole(allowed ...Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return m.WithRole(next, allowed...) }
}

// RequirePermission is WithPermission in chi middleware form.
func (m Middleware) RequirePermission(perm Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return m.WithPermission(next, perm) }
}

// Enforce authenticates the request, then runs checks in order and stops at
// the first denial. Authentication failure answers 401 before any check runs.
// An identity already present in the context is reused.
func (m Middleware) Enforce(next http.Handler, checks ...Check) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			var err error
			id, err = m.authenticate(r)
			if err != nil {
				m.record(outcomeUnauthenticated)
				httpx.Error(w, http.StatusUnauthorized, MsgAuthRequired)
				return
			}
			r = r.WithContext(ContextWithIdentity(r.Context(), id))
		}

		reg := m.registry()
		for _, check := range checks {
			if denial := check(reg, id); denial != nil {
				m.record(outcomeForbidden)
				m.logger().Debug("authorization denied",
					slog.String("user_id", id.UserID),
					slog.String("role", id.Role.String()),
					slog.String("path", r.URL.Path),
					slog.String("reason", denial.Message))
				httpx.JSON(w, http.StatusForbidden, denialBody(denial))
				return
			}
		}
		m.record(outcomeAllow)
		next.ServeHTTP(w, r)
	})
}

// WithIdentity adapts fn to http.Handler, passing the identity injected by an
// enclosing combinator. Without one it answers 401.
func WithIdentity(fn func(http.ResponseWriter, *http.Request, Identity)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			httpx.Error(w, http.StatusUnauthorized, MsgAuthRequired)
			return
		}
		fn(w, r, id)
	})
}

func (m Middleware) authenticate(r *http.Request) (Identity, error) {
	if m.Authenticator == nil {
		return Identity{}, ErrUnauthenticated
	}
	return m.Authenticator.Authenticate(r)
}

func (m Middleware) registry() *Registry {
	if m.Registry == nil {
		return DefaultRegistry()
	}
	return m.Registry
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func (m Middleware) record(outcome string) {
	if m.Metrics != nil {
		m.Metrics.RecordDecision(decisionLayerHandler, outcome)
	}
}

func denialBody(d *Denial) httpx.ErrorBody {
	body := httpx.ErrorBody{Error: d.Message, RequiredPermission: string(d.RequiredPermission)}
	for _, r := range d.AllowedRoles {
		body.AllowedRoles = append(body.AllowedRoles, string(r))
	}
	return body
}
