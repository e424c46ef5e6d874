package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/eddie-kay0462/iris/internal/platform/httpx"
	"github.com/eddie-kay0462/iris/internal/rbac"
)

// mountCommerceAPI registers the store operations behind their permissions.
// Each handler echoes the authorized operation and the acting identity.
func mountCommerceAPI(r chi.Router, mw rbac.Middleware) {
	r.Method(http.MethodGet, "/products", mw.WithPermission(rbac.WithIdentity(acknowledge("products.list")), rbac.PermProductsRead))
	r.Method(http.MethodPost, "/products", mw.WithPermission(rbac.WithIdentity(acknowledge("products.create")), rbac.PermProductsCreate))
	r.Method(http.MethodDelete, "/products/{id}", mw.WithPermission(rbac.WithIdentity(acknowledge("products.delete")), rbac.PermProductsDelete))

	r.Method(http.MethodGet, "/orders", mw.WithPermission(rbac.WithIdentity(acknowledge("orders.list")), rbac.PermOrdersRead))
	r.Method(http.MethodPost, "/orders/{id}/refund", mw.WithPermission(rbac.WithIdentity(acknowledge("orders.refund")), rbac.PermOrdersRefund))

	r.Method(http.MethodGet, "/reports", mw.WithPermission(rbac.WithIdentity(acknowledge("reports.read")), rbac.PermReportsRead))
	r.Method(http.MethodGet, "/admin/overview", mw.WithAdminAccess(rbac.WithIdentity(acknowledge("admin.overview"))))
	r.Method(http.MethodPut, "/settings", mw.WithRole(rbac.WithIdentity(acknowledge("settings.update")), rbac.RoleAdmin))
}

type ack struct {
	Operation string `json:"operation"`
	Resource  string `json:"resource,omitempty"`
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
}

func acknowledge(op string) func(http.ResponseWriter, *http.Request, rbac.Identity) {
	return func(w http.ResponseWriter, r *http.Request, id rbac.Identity) {
		httpx.JSON(w, http.StatusOK, ack{
			Operation: op,
			Resource:  chi.URLParam(r, "id"),
			UserID:    id.UserID,
			Role:      id.Role.String(),
		})
	}
}
