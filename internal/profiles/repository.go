package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements Store using PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PostgreSQL profile store.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const findProfileByID = `SELECT id::text, email, phone_number, first_name, last_name, role
FROM profiles
WHERE id = $1`

// FindByID fetches a single profile.
func (s *PGStore) FindByID(ctx context.Context, id string) (Profile, error) {
	var (
		p                                  Profile
		email, phone, first, last, roleCol pgtype.Text
	)
	err := s.pool.QueryRow(ctx, findProfileByID, id).Scan(&p.ID, &email, &phone, &first, &last, &roleCol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("profiles: find %s: %w", id, err)
	}
	p.Email = email.String
	p.PhoneNumber = phone.String
	p.FirstName = first.String
	p.LastName = last.String
	if roleCol.Valid {
		role := roleCol.String
		p.Role = &role
	}
	return p, nil
}

var _ Store = (*PGStore)(nil)
