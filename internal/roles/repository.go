package roles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resono-hq/resono/internal/shared"
)

// Repository defines persistence for role assignments.
type Repository interface {
	GetRole(ctx context.Context, identityID string) (Role, error)
	SetRole(ctx context.Context, identityID string, role Role) error
	ListAssignments(ctx context.Context) ([]Assignment, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetRole returns the current role for the identity, or ErrNoAssignment.
func (r *PGRepository) GetRole(ctx context.Context, identityID string) (Role, error) {
	var raw string
	err := r.pool.QueryRow(ctx,
		`SELECT role FROM user_roles WHERE identity_id = $1`, identityID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RoleUnassigned, shared.ErrNoAssignment
		}
		return RoleUnassigned, shared.WrapStore("roles get", err)
	}
	role, err := ParseRole(raw)
	if err != nil {
		return RoleUnassigned, err
	}
	return role, nil
}

// SetRole replaces any existing assignment for the identity inside a single
// transaction, so the identity is never observable with zero or two current
// rows. Last writer wins.
func (r *PGRepository) SetRole(ctx context.Context, identityID string, role Role) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return shared.WrapStore("roles set", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`DELETE FROM user_roles WHERE identity_id = $1`, identityID); err != nil {
		return shared.WrapStore("roles set", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO user_roles (identity_id, role, assigned_at) VALUES ($1, $2, $3)`,
		identityID, string(role), time.Now().UTC()); err != nil {
		return shared.WrapStore("roles set", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return shared.WrapStore("roles set", err)
	}
	return nil
}

// ListAssignments returns all current assignments, newest first.
func (r *PGRepository) ListAssignments(ctx context.Context) ([]Assignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT identity_id, role, assigned_at FROM user_roles ORDER BY assigned_at DESC`)
	if err != nil {
		return nil, shared.WrapStore("roles list", err)
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		var a Assignment
		var raw string
		if err := rows.Scan(&a.IdentityID, &raw, &a.AssignedAt); err != nil {
			return nil, shared.WrapStore("roles list", err)
		}
		role, err := ParseRole(raw)
		if err != nil {
			return nil, err
		}
		a.Role = role
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapStore("roles list", err)
	}
	return out, nil
}

var _ Repository = (*PGRepository)(nil)
