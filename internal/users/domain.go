package users

import (
	"errors"
	"math"
	"time"

	"github.com/eddie-kay0462/iris/internal/rbac"
)

var (
	// ErrNotFound indicates an unknown member.
	ErrNotFound = errors.New("users: not found")
	// ErrUnknownRole indicates a role the registry does not define.
	ErrUnknownRole = errors.New("users: unknown role")
	// ErrSelfDemotion indicates an actor removing their own team management access.
	ErrSelfDemotion = errors.New("users: cannot remove own team management access")
)

// Member is a login account joined with its profile.
type Member struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Role        rbac.Role
	HasProfile  bool
	IsActive    bool
	CreatedAt   time.Time
}

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// NewPagination computes pagination metadata. Page is clamped to the range
// [1, TotalPages] so the offset always stays within the result set.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = 20
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	page = min(page, max(totalPages, 1))
	if page <= 0 {
		page = 1
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the row offset of the current page.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }
