package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRolesRouter(auth Authenticator) http.Handler {
	reg := DefaultRegistry()
	h := NewPermissionsHandler(reg, Middleware{Registry: reg, Authenticator: auth})
	r := chi.NewRouter()
	r.Route("/api/roles", h.MountRoutes)
	return r
}

func TestListRoles(t *testing.T) {
	rr := httptest.NewRecorder()
	newRolesRouter(as(RoleManager)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/roles/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Roles []RoleView `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Roles, 4)
	assert.Equal(t, "admin", body.Roles[0].Name)
	assert.Equal(t, "Admin", body.Roles[0].Label)
	assert.True(t, body.Roles[0].AdminCapable)
	assert.Equal(t, "public", body.Roles[2].Name)
	assert.False(t, body.Roles[2].AdminCapable)
	assert.Equal(t, []string{"products:read"}, body.Roles[2].Permissions)
}

func TestShowRole(t *testing.T) {
	router := newRolesRouter(as(RoleAdmin))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/roles/staff", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var view RoleView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, "Staff", view.Label)
	assert.Contains(t, view.Permissions, "orders:update")
	assert.NotContains(t, view.Permissions, "orders:refund")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/roles/root", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRolesRequiresPermission(t *testing.T) {
	rr := httptest.NewRecorder()
	newRolesRouter(as(RoleStaff)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/roles/", nil))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	newRolesRouter(anonymous()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/roles/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
