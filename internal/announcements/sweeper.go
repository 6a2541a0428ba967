package announcements

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Sweeper transitions announcements whose deadline has passed into the
// archived state. It runs on an external schedule and never schedules
// itself.
type Sweeper struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewSweeper constructs a Sweeper.
func NewSweeper(repo Repository, logger *slog.Logger) *Sweeper {
	return &Sweeper{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the sweeper clock for testing.
func (s *Sweeper) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// SweepResult reports what a single run archived. Archived holds only rows
// this run's update flipped, so overlapping sweeps never claim each other's
// work.
type SweepResult struct {
	Count    int                   `json:"count"`
	Archived []ExpiredAnnouncement `json:"archived"`
}

// Sweep selects every unarchived announcement with a passed deadline and
// archives the set in one batch update. Safe to run concurrently with
// itself: the update predicate re-checks archived = false, so overlapping
// runs converge. Any read or write error aborts the run; retrying is the
// scheduler's job and is harmless because the update is idempotent.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now().UTC()
	expired, err := s.repo.ListExpired(ctx, now)
	if err != nil {
		return SweepResult{}, err
	}
	if len(expired) == 0 {
		s.logger.Info("sweep complete", slog.Int("archived", 0))
		return SweepResult{}, nil
	}

	ids := make([]uuid.UUID, len(expired))
	for i, e := range expired {
		ids[i] = e.ID
	}
	flipped, err := s.repo.ArchiveBatch(ctx, ids)
	if err != nil {
		return SweepResult{}, err
	}

	flippedSet := make(map[uuid.UUID]struct{}, len(flipped))
	for _, id := range flipped {
		flippedSet[id] = struct{}{}
	}
	archived := make([]ExpiredAnnouncement, 0, len(flipped))
	for _, e := range expired {
		if _, ok := flippedSet[e.ID]; ok {
			archived = append(archived, e)
		}
	}

	s.logger.Info("sweep complete",
		slog.Int("archived", len(archived)),
		slog.Time("cutoff", now))
	return SweepResult{Count: len(archived), Archived: archived}, nil
}
