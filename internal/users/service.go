package users

import (
	"context"
	"slices"

	"github.com/eddie-kay0462/iris/internal/rbac"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	CountMembers(ctx context.Context) (int, error)
	ListMembers(ctx context.Context, limit, offset int) ([]Member, error)
	UpdateRole(ctx context.Context, id string, role rbac.Role) error
}

// Service handles team management rules.
type Service struct {
	repo     RepositoryPort
	registry *rbac.Registry
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, registry *rbac.Registry) *Service {
	if registry == nil {
		registry = rbac.DefaultRegistry()
	}
	return &Service{repo: repo, registry: registry}
}

// ListMembers returns one page of members.
func (s *Service) ListMembers(ctx context.Context, page, perPage int) ([]Member, Pagination, error) {
	total, err := s.repo.CountMembers(ctx)
	if err != nil {
		return nil, Pagination{}, err
	}
	p := NewPagination(page, perPage, total)
	members, err := s.repo.ListMembers(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, Pagination{}, err
	}
	return members, p, nil
}

// AssignRole changes the stored role of member id. The new role takes effect
// on the member's next request; the edge guard sees it only after they sign
// in again.
func (s *Service) AssignRole(ctx context.Context, actor rbac.Identity, id string, raw string) (rbac.Role, error) {
	role := rbac.Role(raw)
	if !slices.Contains(s.registry.Roles(), role) {
		return "", ErrUnknownRole
	}
	// Actors may not drop the permission that lets them reach this endpoint.
	if actor.UserID == id && !s.registry.HasPermission(role, rbac.PermUsersManage) {
		return "", ErrSelfDemotion
	}
	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return "", err
	}
	return role, nil
}
