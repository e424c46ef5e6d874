package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
	"github.com/eddie-kay0462/iris/internal/rbac"
	"github.com/eddie-kay0462/iris/internal/session"
)

// LoginRateLimit bounds login attempts per client IP per minute.
const LoginRateLimit = 10

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	cookies   session.CookieWriter
	validator *validator.Validate
	loginRate int
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware, cookies session.CookieWriter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      mw,
		cookies:   cookies,
		validator: validator.New(),
		loginRate: LoginRateLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(h.loginRate, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Method(http.MethodGet, "/me", h.rbac.WithAuth(rbac.WithIdentity(h.handleMe)))
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
	Token     string    `json:"token"`
}

type meResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Role        string   `json:"role"`
	ProfileID   string   `json:"profile_id,omitempty"`
	Permissions []string `json:"permissions"`
	Degraded    bool     `json:"degraded,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Error(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.cookies.Set(w, res.Token, res.ExpiresAt)
	httpx.JSON(w, http.StatusOK, loginResponse{
		UserID:    res.Claims.Subject,
		Email:     res.Claims.Email,
		Role:      res.Role.String(),
		ExpiresAt: res.ExpiresAt,
		Token:     res.Token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	for _, raw := range session.Candidates(r, h.cookies.Name) {
		if err := h.service.Logout(r.Context(), raw); err != nil {
			h.logger.Warn("revoke session", slog.Any("error", err))
		}
	}
	h.cookies.Clear(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, _ *http.Request, id rbac.Identity) {
	reg := h.rbac.Registry
	if reg == nil {
		reg = rbac.DefaultRegistry()
	}
	perms := reg.PermissionsFor(id.Role)
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.String())
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		UserID:      id.UserID,
		Email:       id.Email,
		Role:        id.Role.String(),
		ProfileID:   id.ProfileID,
		Permissions: names,
		Degraded:    id.Degraded,
	})
}
