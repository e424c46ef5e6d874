package users

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eddie-kay0462/iris/internal/rbac"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountMembers returns the number of login accounts.
func (r *Repository) CountMembers(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("users: count: %w", err)
	}
	return n, nil
}

// ListMembers returns one page of accounts ordered by email.
func (r *Repository) ListMembers(ctx context.Context, limit, offset int) ([]Member, error) {
	const q = `
SELECT u.id::text, u.email, u.is_active, u.created_at,
       p.id IS NOT NULL, p.first_name, p.last_name, p.phone_number, p.role
FROM users u
LEFT JOIN profiles p ON p.id = u.id
ORDER BY u.email
LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	members, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Member, error) {
		var m Member
		var first, last, phone, role pgtype.Text
		if err := row.Scan(&m.ID, &m.Email, &m.IsActive, &m.CreatedAt, &m.HasProfile, &first, &last, &phone, &role); err != nil {
			return Member{}, err
		}
		m.FirstName, m.LastName, m.PhoneNumber = first.String, last.String, phone.String
		m.Role = rbac.RolePublic
		if role.Valid {
			m.Role = rbac.ParseRole(role.String)
		}
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return members, nil
}

// UpdateRole sets the profile role of id.
func (r *Repository) UpdateRole(ctx context.Context, id string, role rbac.Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE profiles SET role = $2 WHERE id = $1`, id, role.String())
	if err != nil {
		return fmt.Errorf("users: update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
