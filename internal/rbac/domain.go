package rbac

import (
	"errors"
	"strings"
)

// ErrInvalidPermission indicates a permission string that is not of the form resource:action.
var ErrInvalidPermission = errors.New("rbac: invalid permission")

// Role is a coarse privilege tier assigned to an identity.
type Role string

// Known roles. Roles carry explicit permission sets; none inherits from another.
const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RolePublic  Role = "public"
)

// ParseRole maps a raw role value onto a known role. Anything unrecognised,
// including the empty string, becomes RolePublic.
func ParseRole(raw string) Role {
	switch r := Role(strings.TrimSpace(raw)); r {
	case RoleAdmin, RoleManager, RoleStaff, RolePublic:
		return r
	default:
		return RolePublic
	}
}

// ParseRoles parses a list of role names, dropping duplicates. Unknown names
// collapse to RolePublic like ParseRole.
func ParseRoles(raw []string) []Role {
	seen := make(map[Role]struct{}, len(raw))
	roles := make([]Role, 0, len(raw))
	for _, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		r := ParseRole(v)
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}
	return roles
}

// String implements fmt.Stringer.
func (r Role) String() string { return string(r) }

// Permission is a capability token of the form resource:action.
type Permission string

// Catalogue permissions.
const (
	PermProductsRead   Permission = "products:read"
	PermProductsCreate Permission = "products:create"
	PermProductsUpdate Permission = "products:update"
	PermProductsDelete Permission = "products:delete"

	PermOrdersRead   Permission = "orders:read"
	PermOrdersUpdate Permission = "orders:update"
	PermOrdersRefund Permission = "orders:refund"

	PermCustomersRead   Permission = "customers:read"
	PermInventoryManage Permission = "inventory:manage"
	PermReportsRead     Permission = "reports:read"

	PermUsersManage    Permission = "users:manage"
	PermRolesRead      Permission = "roles:read"
	PermSettingsManage Permission = "settings:manage"
)

// ParsePermission validates the resource:action shape. Matching is
// case-sensitive, so the value is only trimmed, never lower-cased.
func ParsePermission(raw string) (Permission, error) {
	raw = strings.TrimSpace(raw)
	resource, action, ok := strings.Cut(raw, ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return "", ErrInvalidPermission
	}
	if strings.ContainsAny(raw, " \t*") {
		return "", ErrInvalidPermission
	}
	return Permission(raw), nil
}

// String implements fmt.Stringer.
func (p Permission) String() string { return string(p) }
