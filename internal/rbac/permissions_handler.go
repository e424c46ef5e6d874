package rbac

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
)

// RoleView is the listing shape of one role.
type RoleView struct {
	Name         string   `json:"name"`
	Label        string   `json:"label"`
	AdminCapable bool     `json:"admin_capable"`
	Permissions  []string `json:"permissions"`
}

// PermissionsHandler exposes the registry to the management console.
type PermissionsHandler struct {
	registry *Registry
	rbac     Middleware
}

// NewPermissionsHandler builds a PermissionsHandler.
func NewPermissionsHandler(registry *Registry, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{registry: registry, rbac: rbac}
}

// MountRoutes registers role listing routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(PermRolesRead))
		r.Get("/", h.listRoles)
		r.Get("/{role}", h.showRole)
	})
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.registry.Roles()
	views := make([]RoleView, 0, len(roles))
	for _, role := range roles {
		views = append(views, h.view(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": views})
}

func (h *PermissionsHandler) showRole(w http.ResponseWriter, r *http.Request) {
	role := Role(chi.URLParam(r, "role"))
	if !slices.Contains(h.registry.Roles(), role) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, h.view(role))
}

func (h *PermissionsHandler) view(role Role) RoleView {
	perms := h.registry.PermissionsFor(role)
	names := make([]string, len(perms))
	for i, p := range perms {
		names[i] = string(p)
	}
	return RoleView{
		Name:         string(role),
		Label:        cases.Title(language.English).String(string(role)),
		AdminCapable: h.registry.IsAdminCapable(role),
		Permissions:  names,
	}
}
