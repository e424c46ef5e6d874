package rbac

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	decisions map[string]int
}

func (r *recorder) RecordDecision(layer, outcome string) {
	if r.decisions == nil {
		r.decisions = map[string]int{}
	}
	r.decisions[layer+"/"+outcome]++
}

type authStub struct {
	id    Identity
	err   error
	calls int
}

func (a *authStub) Authenticate(*http.Request) (Identity, error) {
	a.calls++
	return a.id, a.err
}

func anonymous() *authStub { return &authStub{err: ErrUnauthenticated} }

func as(role Role) *authStub {
	return &authStub{id: Identity{UserID: "u-" + string(role), Role: role}}
}

func okHandler(t *testing.T, wantRole Role) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		require.True(t, ok, "identity must be injected")
		assert.Equal(t, wantRole, id.Role)
		w.WriteHeader(http.StatusOK)
	})
}

func serve(h http.Handler) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/orders/1/refund", nil))
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func TestWithAuthUnauthenticatedReturns401(t *testing.T) {
	rec := &recorder{}
	m := Middleware{Registry: DefaultRegistry(), Authenticator: anonymous(), Metrics: rec}
	rr := serve(m.WithAuth(okHandler(t, RoleAdmin)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, rr.Body.String())
	assert.Equal(t, 1, rec.decisions["handler/unauthenticated"])
}

func TestWithAuthInjectsIdentity(t *testing.T) {
	m := Middleware{Registry: DefaultRegistry(), Authenticator: as(RolePublic)}
	rr := serve(m.WithAuth(okHandler(t, RolePublic)))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHigherChecksNeverRunWithoutIdentity(t *testing.T) {
	m := Middleware{Registry: DefaultRegistry(), Authenticator: anonymous()}
	ran := false
	spy := func(*Registry, Identity) *Denial {
		ran = true
		return nil
	}
	for _, h := range []http.Handler{
		m.WithAdminAccess(okHandler(t, RoleAdmin)),
		m.WithRole(okHandler(t, RoleAdmin), RoleAdmin),
		m.WithPermission(okHandler(t, RoleAdmin), PermOrdersRefund),
		m.Enforce(okHandler(t, RoleAdmin), spy),
	} {
		rr := serve(h)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
	assert.False(t, ran)
}

func TestWithRole(t *testing.T) {
	allowed := []Role{RoleAdmin, RoleManager}

	staff := Middleware{Registry: DefaultRegistry(), Authenticator: as(RoleStaff)}
	rr := serve(staff.WithRole(okHandler(t, RoleStaff), allowed...))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	body := decodeBody(t, rr)
	assert.Equal(t, "Insufficient role", body["error"])
	assert.Equal(t, []any{"admin", "manager"}, body["allowed_roles"])

	manager := Middleware{Registry: DefaultRegistry(), Authenticator: as(RoleManager)}
	rr = serve(manager.WithRole(okHandler(t, RoleManager), allowed...))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestWithRoleEmptyListAdmitsNobody(t *testing.T) {
	m := Middleware{Registry: DefaultRegistry(), Authenticator: as(RoleAdmin)}
	rr := serve(m.WithRole(okHandler(t, RoleAdmin)))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestWithAdminAccess(t *testing.T) {
	for role, want := range map[Role]int{
		RoleAdmin:   http.StatusOK,
		RoleManager: http.StatusOK,
		RoleStaff:   http.StatusOK,
		RolePublic:  http.StatusForbidden,
	} {
		m := Middleware{Registry: DefaultRegistry(), Authenticator: as(role)}
		rr := serve(m.WithAdminAccess(okHandler(t, role)))
		assert.Equal(t, want, rr.Code, "role %s", role)
	}

	strict := Middleware{Registry: NewRegistry(DefaultTable(), StrictAdminRoles), Authenticator: as(RoleStaff)}
	rr := serve(strict.WithAdminAccess(okHandler(t, RoleStaff)))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Admin access required"}`, rr.Body.String())
}

func TestWithPermissionRefund(t *testing.T) {
	staff := Middleware{Registry: DefaultRegistry(), Authenticator: as(RoleStaff)}
	rr := serve(staff.WithPermission(okHandler(t, RoleStaff), PermOrdersRefund))
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"error":"Missing permission","required_permission":"orders:refund"}`, rr.Body.String())

	for _, role := range []Role{RoleAdmin, RoleManager} {
		m := Middleware{Registry: DefaultRegistry(), Authenticator: as(role)}
		rr := serve(m.WithPermission(okHandler(t, role), PermOrdersRefund))
		assert.Equal(t, http.StatusOK, rr.Code, "role %s", role)
	}
}

func TestDegradedIdentityGets403Not500(t *testing.T) {
	auth := &authStub{id: Identity{UserID: "u1", Role: RolePublic, Degraded: true}}
	m := Middleware{Registry: DefaultRegistry(), Authenticator: auth}
	rr := serve(m.WithAdminAccess(okHandler(t, RolePublic)))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestNestedCombinatorsAuthenticateOnce(t *testing.T) {
	auth := as(RoleManager)
	m := Middleware{Registry: DefaultRegistry(), Authenticator: auth}
	h := m.WithAuth(m.WithAdminAccess(m.WithPermission(okHandler(t, RoleManager), PermReportsRead)))

	rr := serve(h)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, auth.calls)
}

func TestEnforceStopsAtFirstDenial(t *testing.T) {
	m := Middleware{Registry: DefaultRegistry(), Authenticator: as(RoleStaff)}
	second := false
	h := m.Enforce(okHandler(t, RoleStaff),
		PermissionCheck(PermUsersManage),
		func(*Registry, Identity) *Denial { second = true; return nil },
	)
	rr := serve(h)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.False(t, second)
}

func TestWithIdentityAdapter(t *testing.T) {
	var got Identity
	inner := WithIdentity(func(w http.ResponseWriter, r *http.Request, id Identity) {
		got = id
		w.WriteHeader(http.StatusNoContent)
	})

	rr := serve(inner)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	m := Middleware{Registry: DefaultRegistry(), Authenticator: as(RoleAdmin)}
	rr = serve(m.WithAuth(inner))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, RoleAdmin, got.Role)
}

func TestMissingAuthenticatorFailsClosed(t *testing.T) {
	m := Middleware{}
	rr := serve(m.WithAuth(okHandler(t, RoleAdmin)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
