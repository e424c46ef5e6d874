package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
	"github.com/eddie-kay0462/iris/internal/rbac"
)

// Handler manages team endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.PermUsersManage))
		r.Get("/", h.listMembers)
		r.Method(http.MethodPatch, "/{id}/role", rbac.WithIdentity(h.assignRole))
	})
}

type memberView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Role        string    `json:"role"`
	HasProfile  bool      `json:"has_profile"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type listResponse struct {
	Members    []memberView   `json:"members"`
	Pagination map[string]int `json:"pagination"`
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func (h *Handler) listMembers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage > 100 {
		perPage = 100
	}
	members, p, err := h.service.ListMembers(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list members failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	views := make([]memberView, 0, len(members))
	for _, m := range members {
		views = append(views, memberView{
			ID:          m.ID,
			Email:       m.Email,
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			PhoneNumber: m.PhoneNumber,
			Role:        m.Role.String(),
			HasProfile:  m.HasProfile,
			IsActive:    m.IsActive,
			CreatedAt:   m.CreatedAt,
		})
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Members: views,
		Pagination: map[string]int{
			"page":        p.Page,
			"per_page":    p.PerPage,
			"total":       p.Total,
			"total_pages": p.TotalPages,
		},
	})
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request, actor rbac.Identity) {
	var req assignRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "Role is required")
		return
	}

	id := chi.URLParam(r, "id")
	role, err := h.service.AssignRole(r.Context(), actor, id, req.Role)
	switch {
	case err == nil:
	case errors.Is(err, ErrUnknownRole):
		httpx.Error(w, http.StatusBadRequest, "Unknown role")
		return
	case errors.Is(err, ErrSelfDemotion):
		httpx.Error(w, http.StatusConflict, "You cannot remove your own team management access")
		return
	case errors.Is(err, ErrNotFound):
		httpx.Error(w, http.StatusNotFound, "Profile not found")
		return
	default:
		h.logger.Error("assign role failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.logger.Info("role assigned",
		slog.String("actor", actor.UserID),
		slog.String("member", id),
		slog.String("role", role.String()))
	httpx.JSON(w, http.StatusOK, map[string]string{"id": id, "role": role.String()})
}
