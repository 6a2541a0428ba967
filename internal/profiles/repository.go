package profiles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/shared"
)

// Repository defines persistence for profiles.
type Repository interface {
	Upsert(ctx context.Context, p Profile) (Profile, error)
	Get(ctx context.Context, identityID string) (Profile, error)
	ListDirectory(ctx context.Context) ([]DirectoryEntry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Upsert inserts the profile or updates the existing row for the identity,
// returning the stored record with its timestamps.
func (r *PGRepository) Upsert(ctx context.Context, p Profile) (Profile, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (identity_id, full_name, email, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (identity_id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
		    email = EXCLUDED.email,
		    avatar_url = EXCLUDED.avatar_url,
		    updated_at = now()
		RETURNING identity_id, full_name, email, avatar_url, created_at, updated_at`,
		p.IdentityID, p.FullName, p.Email, p.AvatarURL)

	var out Profile
	if err := row.Scan(&out.IdentityID, &out.FullName, &out.Email, &out.AvatarURL, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return Profile{}, shared.WrapStore("profiles upsert", err)
	}
	return out, nil
}

// Get returns the profile for the identity, or shared.ErrNotFound.
func (r *PGRepository) Get(ctx context.Context, identityID string) (Profile, error) {
	var out Profile
	err := r.pool.QueryRow(ctx, `
		SELECT identity_id, full_name, email, avatar_url, created_at, updated_at
		FROM profiles WHERE identity_id = $1`, identityID).
		Scan(&out.IdentityID, &out.FullName, &out.Email, &out.AvatarURL, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, shared.ErrNotFound
		}
		return Profile{}, shared.WrapStore("profiles get", err)
	}
	return out, nil
}

// ListDirectory returns every profile joined with its current role
// assignment, newest profiles first.
func (r *PGRepository) ListDirectory(ctx context.Context) ([]DirectoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.identity_id, p.full_name, p.email, p.avatar_url, p.created_at, p.updated_at, ur.role
		FROM profiles p
		LEFT JOIN user_roles ur ON ur.identity_id = p.identity_id
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, shared.WrapStore("profiles directory", err)
	}
	defer rows.Close()

	var out []DirectoryEntry
	for rows.Next() {
		var e DirectoryEntry
		var raw *string
		if err := rows.Scan(&e.IdentityID, &e.FullName, &e.Email, &e.AvatarURL, &e.CreatedAt, &e.UpdatedAt, &raw); err != nil {
			return nil, shared.WrapStore("profiles directory", err)
		}
		e.Role = roles.RoleUnassigned
		if raw != nil {
			role, err := roles.ParseRole(*raw)
			if err != nil {
				return nil, err
			}
			e.Role = role
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapStore("profiles directory", err)
	}
	return out, nil
}

var _ Repository = (*PGRepository)(nil)
