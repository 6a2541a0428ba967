package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resono-hq/resono/internal/shared"
)

// StatusCounts holds the board-wide announcement totals.
type StatusCounts struct {
	Total    int
	Active   int
	Archived int
}

// Repository defines the aggregate queries behind the dashboard.
type Repository interface {
	CountByStatus(ctx context.Context) (StatusCounts, error)
	ActiveByCategory(ctx context.Context) (map[string]int, error)
	ActiveByPriority(ctx context.Context) (map[string]int, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CountByStatus returns total, active and archived announcement counts.
func (r *PGRepository) CountByStatus(ctx context.Context) (StatusCounts, error) {
	var c StatusCounts
	err := r.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE NOT archived),
		       count(*) FILTER (WHERE archived)
		FROM announcements`).Scan(&c.Total, &c.Active, &c.Archived)
	if err != nil {
		return StatusCounts{}, shared.WrapStore("stats status counts", err)
	}
	return c, nil
}

// ActiveByCategory returns active announcement counts keyed by category.
func (r *PGRepository) ActiveByCategory(ctx context.Context) (map[string]int, error) {
	return r.groupedCount(ctx, "category")
}

// ActiveByPriority returns active announcement counts keyed by priority.
func (r *PGRepository) ActiveByPriority(ctx context.Context) (map[string]int, error) {
	return r.groupedCount(ctx, "priority")
}

func (r *PGRepository) groupedCount(ctx context.Context, column string) (map[string]int, error) {
	// column is one of two compile-time constants, never caller input.
	rows, err := r.pool.Query(ctx,
		`SELECT `+column+`, count(*) FROM announcements WHERE NOT archived GROUP BY `+column)
	if err != nil {
		return nil, shared.WrapStore("stats grouped count", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, shared.WrapStore("stats grouped count", err)
		}
		out[key] = n
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapStore("stats grouped count", err)
	}
	return out, nil
}

var _ Repository = (*PGRepository)(nil)
