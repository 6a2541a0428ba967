package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resono-hq/resono/internal/shared"
)

// Repository defines persistence for announcements.
type Repository interface {
	Create(ctx context.Context, a Announcement) error
	Get(ctx context.Context, id uuid.UUID) (Announcement, error)
	List(ctx context.Context, filter Filter) ([]Announcement, error)
	Archive(ctx context.Context, id uuid.UUID) error
	UpdateAnalysis(ctx context.Context, id uuid.UUID, summary, category string, priority Priority) error
	ListExpired(ctx context.Context, now time.Time) ([]ExpiredAnnouncement, error)
	ArchiveBatch(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

// ExpiredAnnouncement is the subset of fields the sweeper reports.
type ExpiredAnnouncement struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Deadline time.Time `json:"deadline"`
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const announcementColumns = `id, author_id, title, content, summary, category, priority, department, deadline, archived, attachments, created_at`

// Create inserts a new announcement row.
func (r *PGRepository) Create(ctx context.Context, a Announcement) error {
	attachments, err := json.Marshal(a.Attachments)
	if err != nil {
		return fmt.Errorf("announcements create: encode attachments: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO announcements
(id, author_id, title, content, summary, category, priority, department, deadline, archived, attachments, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, $11)`,
		a.ID, a.AuthorID, a.Title, a.Content, a.Summary, a.Category, string(a.Priority),
		a.Department, a.Deadline, attachments, a.CreatedAt)
	if err != nil {
		return shared.WrapStore("announcements create", err)
	}
	return nil
}

// Get fetches a single announcement by id.
func (r *PGRepository) Get(ctx context.Context, id uuid.UUID) (Announcement, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+announcementColumns+` FROM announcements WHERE id = $1`, id)
	a, err := scanAnnouncement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Announcement{}, shared.ErrNotFound
		}
		return Announcement{}, shared.WrapStore("announcements get", err)
	}
	return a, nil
}

// List returns announcements matching the filter, newest first.
func (r *PGRepository) List(ctx context.Context, filter Filter) ([]Announcement, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	switch filter.Status {
	case StatusArchived:
		conds = append(conds, "archived = true")
	default:
		conds = append(conds, "archived = false")
	}
	if filter.Priority != "" {
		conds = append(conds, "priority = "+arg(string(filter.Priority)))
	}
	if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}
	if filter.Department != "" {
		conds = append(conds, "department = "+arg(filter.Department))
	}
	if filter.Query != "" {
		p := arg("%" + filter.Query + "%")
		conds = append(conds, "(title ILIKE "+p+" OR summary ILIKE "+p+")")
	}

	query := `SELECT ` + announcementColumns + ` FROM announcements WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, shared.WrapStore("announcements list", err)
	}
	defer rows.Close()

	var out []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, shared.WrapStore("announcements list", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapStore("announcements list", err)
	}
	return out, nil
}

// Archive flips a single announcement to archived. A no-op on rows that are
// already archived, so the transition stays monotonic.
func (r *PGRepository) Archive(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE announcements SET archived = true WHERE id = $1`, id)
	if err != nil {
		return shared.WrapStore("announcements archive", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateAnalysis replaces the analysis metadata on an active announcement.
// Archived rows are left alone; their content is frozen.
func (r *PGRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, summary, category string, priority Priority) error {
	tag, err := r.pool.Exec(ctx, `UPDATE announcements
SET summary = $2, category = $3, priority = $4
WHERE id = $1 AND archived = false`,
		id, summary, category, string(priority))
	if err != nil {
		return shared.WrapStore("announcements update analysis", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListExpired returns unarchived announcements with a deadline before now.
func (r *PGRepository) ListExpired(ctx context.Context, now time.Time) ([]ExpiredAnnouncement, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, title, deadline FROM announcements
WHERE archived = false AND deadline IS NOT NULL AND deadline < $1`, now)
	if err != nil {
		return nil, shared.WrapStore("announcements list expired", err)
	}
	defer rows.Close()

	var out []ExpiredAnnouncement
	for rows.Next() {
		var e ExpiredAnnouncement
		if err := rows.Scan(&e.ID, &e.Title, &e.Deadline); err != nil {
			return nil, shared.WrapStore("announcements list expired", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapStore("announcements list expired", err)
	}
	return out, nil
}

// ArchiveBatch archives the given ids in one statement and returns the ids
// the update actually flipped. The predicate re-checks archived = false so
// overlapping sweeps converge instead of double-counting.
func (r *PGRepository) ArchiveBatch(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`UPDATE announcements SET archived = true WHERE id = ANY($1) AND archived = false RETURNING id`, ids)
	if err != nil {
		return nil, shared.WrapStore("announcements archive batch", err)
	}
	defer rows.Close()

	var archived []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, shared.WrapStore("announcements archive batch", err)
		}
		archived = append(archived, id)
	}
	if err := rows.Err(); err != nil {
		return nil, shared.WrapStore("announcements archive batch", err)
	}
	return archived, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnouncement(row rowScanner) (Announcement, error) {
	var (
		a           Announcement
		priority    string
		archived    bool
		attachments []byte
	)
	if err := row.Scan(&a.ID, &a.AuthorID, &a.Title, &a.Content, &a.Summary, &a.Category,
		&priority, &a.Department, &a.Deadline, &archived, &attachments, &a.CreatedAt); err != nil {
		return Announcement{}, err
	}
	a.Priority = Priority(priority)
	a.Status = StatusActive
	if archived {
		a.Status = StatusArchived
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &a.Attachments); err != nil {
			return Announcement{}, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return a, nil
}

var _ Repository = (*PGRepository)(nil)
