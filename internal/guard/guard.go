// Package guard implements the coarse, redirect-based gate in front of the
// admin application. It decides from the session token alone and never
// touches a data store, so a role change reaches the edge only once the
// caller holds a fresh token.
package guard

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/eddie-kay0462/iris/internal/rbac"
	"github.com/eddie-kay0462/iris/internal/session"
)

// DefaultLoginPath is the admin login page.
const DefaultLoginPath = "/login"

// DefaultExclusions lists paths passed through without inspection.
var DefaultExclusions = []string{
	"/static/",
	"/_build/",
	"/assets/",
	"/favicon.ico",
	"/healthz",
	"/metrics",
	"/webhooks/",
	"/api/",
	"/auth/",
}

// State classifies the caller at the edge.
type State int

// Caller states.
const (
	Unauthenticated State = iota
	AuthenticatedNonAdmin
	AuthenticatedAdmin
)

func (s State) String() string {
	switch s {
	case AuthenticatedNonAdmin:
		return "non_admin"
	case AuthenticatedAdmin:
		return "admin"
	default:
		return "unauthenticated"
	}
}

// Decision is the outcome for a single request. An empty Location allows it.
type Decision struct {
	State    State
	Location string
	Excluded bool
}

// Allowed reports whether the request passes through.
func (d Decision) Allowed() bool { return d.Location == "" }

// ClaimsResolver decodes a raw token into claims.
type ClaimsResolver interface {
	Resolve(raw string) (session.Claims, bool)
}

// Config configures a Guard.
type Config struct {
	Sessions   ClaimsResolver
	Registry   *rbac.Registry
	CookieName string
	LoginPath  string
	Exclusions []string
	Logger     *slog.Logger
	Metrics    rbac.DecisionRecorder
}

// Guard evaluates the edge redirect rules.
type Guard struct {
	sessions   ClaimsResolver
	registry   *rbac.Registry
	cookieName string
	loginPath  string
	exclusions []string
	logger     *slog.Logger
	metrics    rbac.DecisionRecorder
}

// New builds a Guard, filling unset fields with defaults.
func New(cfg Config) *Guard {
	g := &Guard{
		sessions:   cfg.Sessions,
		registry:   cfg.Registry,
		cookieName: cfg.CookieName,
		loginPath:  cfg.LoginPath,
		exclusions: append([]string(nil), cfg.Exclusions...),
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
	if g.registry == nil {
		g.registry = rbac.DefaultRegistry()
	}
	if g.loginPath == "" {
		g.loginPath = DefaultLoginPath
	}
	if cfg.Exclusions == nil {
		g.exclusions = append([]string(nil), DefaultExclusions...)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Excluded reports whether path bypasses the guard. Entries ending in "/"
// match their whole subtree and the bare directory; other entries match
// exactly.
func (g *Guard) Excluded(path string) bool {
	for _, entry := range g.exclusions {
		dir, isDir := strings.CutSuffix(entry, "/")
		if !isDir {
			if path == entry {
				return true
			}
			continue
		}
		if path == dir || strings.HasPrefix(path, entry) {
			return true
		}
	}
	return false
}

// Decide applies the redirect rules to target, which is the request path
// optionally followed by "?query". Excluded paths are decided before the
// token is looked at.
func (g *Guard) Decide(target, raw string) Decision {
	path, _, _ := strings.Cut(target, "?")
	if g.Excluded(path) {
		return Decision{Excluded: true}
	}

	state := g.classify(raw)
	if path == g.loginPath {
		if state == AuthenticatedAdmin {
			return Decision{State: state, Location: "/"}
		}
		return Decision{State: state}
	}

	switch state {
	case Unauthenticated:
		return Decision{State: state, Location: g.loginPath + "?redirectTo=" + escapeTarget(localTarget(target))}
	case AuthenticatedNonAdmin:
		return Decision{State: state, Location: g.loginPath + "?error=unauthorized"}
	default:
		return Decision{State: state}
	}
}

// Middleware redirects requests that Decide does not allow.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := r.URL.Path
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		var raw string
		if !g.Excluded(r.URL.Path) {
			raw = g.token(r)
		}

		d := g.Decide(target, raw)
		if d.Excluded {
			next.ServeHTTP(w, r)
			return
		}
		if d.Allowed() {
			g.record("allow")
			next.ServeHTTP(w, r)
			return
		}
		g.record("redirect")
		g.logger.Debug("edge redirect",
			slog.String("path", r.URL.Path),
			slog.String("state", d.State.String()),
			slog.String("location", d.Location))
		http.Redirect(w, r, d.Location, http.StatusTemporaryRedirect)
	})
}

// token picks the request's session token. With both a cookie and a bearer
// header present, the first one that verifies is used.
func (g *Guard) token(r *http.Request) string {
	candidates := session.Candidates(r, g.cookieName)
	switch {
	case len(candidates) == 0:
		return ""
	case len(candidates) == 1 || g.sessions == nil:
		return candidates[0]
	}
	for _, raw := range candidates {
		if _, ok := g.sessions.Resolve(raw); ok {
			return raw
		}
	}
	return candidates[0]
}

func (g *Guard) classify(raw string) State {
	if raw == "" || g.sessions == nil {
		return Unauthenticated
	}
	claims, ok := g.sessions.Resolve(raw)
	if !ok {
		return Unauthenticated
	}
	if g.registry.IsAdminCapable(claims.Role) {
		return AuthenticatedAdmin
	}
	return AuthenticatedNonAdmin
}

func (g *Guard) record(outcome string) {
	if g.metrics != nil {
		g.metrics.RecordDecision("edge", outcome)
	}
}

// localTarget keeps the redirect on this host: protocol-relative or
// backslash-prefixed paths collapse to a single leading slash.
func localTarget(target string) string {
	trimmed := strings.TrimLeft(target, "/\\")
	return "/" + trimmed
}

// escapeTarget query-escapes target but keeps slashes readable; they are
// legal inside a query component.
func escapeTarget(target string) string {
	return strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
}
