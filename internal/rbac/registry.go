package rbac

import (
	"slices"
)

// AdminRoles is the default set of roles admitted to the admin console.
var AdminRoles = []Role{RoleAdmin, RoleManager, RoleStaff}

// StrictAdminRoles is the narrower admin set used by stricter gates.
var StrictAdminRoles = []Role{RoleAdmin, RoleManager}

// DefaultTable is the static role to permission mapping.
func DefaultTable() map[Role][]Permission {
	return map[Role][]Permission{
		RoleAdmin: {
			PermProductsRead, PermProductsCreate, PermProductsUpdate, PermProductsDelete,
			PermOrdersRead, PermOrdersUpdate, PermOrdersRefund,
			PermCustomersRead, PermInventoryManage, PermReportsRead,
			PermUsersManage, PermRolesRead, PermSettingsManage,
		},
		RoleManager: {
			PermProductsRead, PermProductsCreate, PermProductsUpdate,
			PermOrdersRead, PermOrdersUpdate, PermOrdersRefund,
			PermCustomersRead, PermInventoryManage, PermReportsRead,
			PermRolesRead,
		},
		RoleStaff: {
			PermProductsRead, PermProductsUpdate,
			PermOrdersRead, PermOrdersUpdate,
			PermCustomersRead, PermInventoryManage,
		},
		RolePublic: {
			PermProductsRead,
		},
	}
}

// Registry is an immutable role to permission lookup. Build it once at
// startup and share the pointer; all methods are safe for concurrent use.
type Registry struct {
	grants map[Role]map[Permission]struct{}
	admin  map[Role]struct{}
	roles  []Role
}

// NewRegistry copies table and adminRoles into a Registry. Roles absent from
// the table have no permissions. The public role is always present.
func NewRegistry(table map[Role][]Permission, adminRoles []Role) *Registry {
	reg := &Registry{
		grants: make(map[Role]map[Permission]struct{}, len(table)+1),
		admin:  make(map[Role]struct{}, len(adminRoles)),
	}
	for role, perms := range table {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		reg.grants[role] = set
	}
	if _, ok := reg.grants[RolePublic]; !ok {
		reg.grants[RolePublic] = map[Permission]struct{}{}
	}
	for _, r := range adminRoles {
		reg.admin[r] = struct{}{}
	}
	for r := range reg.grants {
		reg.roles = append(reg.roles, r)
	}
	slices.Sort(reg.roles)
	return reg
}

// DefaultRegistry builds the registry from DefaultTable with AdminRoles as the
// admin-capable set.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultTable(), AdminRoles)
}

// HasPermission reports whether role holds permission. Unknown roles are
// evaluated as public.
func (r *Registry) HasPermission(role Role, permission Permission) bool {
	_, ok := r.grantsFor(role)[permission]
	return ok
}

// IsAdminCapable reports whether role is in the admin-capable set.
func (r *Registry) IsAdminCapable(role Role) bool {
	_, ok := r.admin[role]
	return ok
}

// PermissionsFor returns the sorted permissions of role.
func (r *Registry) PermissionsFor(role Role) []Permission {
	set := r.grantsFor(role)
	perms := make([]Permission, 0, len(set))
	for p := range set {
		perms = append(perms, p)
	}
	slices.Sort(perms)
	return perms
}

// Roles lists the roles known to the registry in name order.
func (r *Registry) Roles() []Role {
	return slices.Clone(r.roles)
}

// AdminRoles lists the admin-capable roles in name order.
func (r *Registry) AdminRoles() []Role {
	roles := make([]Role, 0, len(r.admin))
	for role := range r.admin {
		roles = append(roles, role)
	}
	slices.Sort(roles)
	return roles
}

func (r *Registry) grantsFor(role Role) map[Permission]struct{} {
	if set, ok := r.grants[role]; ok {
		return set
	}
	return r.grants[RolePublic]
}
