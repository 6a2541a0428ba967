package announcements

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resono-hq/resono/internal/shared"
)

func seedAnnouncement(t *testing.T, repo *memoryRepo, deadline *time.Time, archived bool) Announcement {
	t.Helper()
	a := Announcement{
		ID:        uuid.New(),
		AuthorID:  "author-1",
		Title:     "seeded",
		Content:   "content",
		Summary:   "summary",
		Category:  "General Info",
		Priority:  PriorityMedium,
		Status:    StatusActive,
		Deadline:  deadline,
		CreatedAt: time.Now().UTC(),
	}
	if archived {
		a.Status = StatusArchived
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestSweepArchivesExpired(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	yesterday := now.Add(-24 * time.Hour)
	tomorrow := now.Add(24 * time.Hour)

	expired := seedAnnouncement(t, repo, &yesterday, false)
	upcoming := seedAnnouncement(t, repo, &tomorrow, false)
	undated := seedAnnouncement(t, repo, nil, false)

	sweeper := NewSweeper(repo, slog.Default())
	sweeper.WithNow(func() time.Time { return now })

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Archived, 1)
	assert.Equal(t, expired.ID, result.Archived[0].ID)
	assert.Equal(t, "seeded", result.Archived[0].Title)

	got, err := repo.Get(context.Background(), expired.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived())

	for _, untouched := range []Announcement{upcoming, undated} {
		got, err := repo.Get(context.Background(), untouched.ID)
		require.NoError(t, err)
		assert.False(t, got.Archived())
	}
}

func TestSweepIsConvergent(t *testing.T) {
	repo := newMemoryRepo()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	seedAnnouncement(t, repo, &past, false)

	sweeper := NewSweeper(repo, slog.Default())

	first, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Count)

	second, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Count, "second run must find nothing to do")
}

func TestSweepSkipsAlreadyArchived(t *testing.T) {
	repo := newMemoryRepo()
	past := time.Now().Add(-time.Hour)
	seedAnnouncement(t, repo, &past, true)

	sweeper := NewSweeper(repo, slog.Default())
	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
}

func TestSweepEmptyStore(t *testing.T) {
	sweeper := NewSweeper(newMemoryRepo(), slog.Default())
	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Empty(t, result.Archived)
}

func TestSweepReportsOnlyRowsItArchived(t *testing.T) {
	repo := newMemoryRepo()
	past := time.Now().Add(-time.Hour)
	mine := seedAnnouncement(t, repo, &past, false)
	stolen := seedAnnouncement(t, repo, &past, false)

	// Another run archives one of the expired rows between this run's read
	// and its write. The result must claim only the row this run flipped.
	repo.beforeBatch = func() {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		a := repo.rows[stolen.ID]
		a.Status = StatusArchived
		repo.rows[stolen.ID] = a
	}

	sweeper := NewSweeper(repo, slog.Default())
	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	require.Len(t, result.Archived, 1)
	assert.Equal(t, mine.ID, result.Archived[0].ID)
}

func TestSweepReadFailureAborts(t *testing.T) {
	repo := newMemoryRepo()
	repo.listErr = shared.NewError(shared.KindStoreUnavailable, "store down")

	sweeper := NewSweeper(repo, slog.Default())
	_, err := sweeper.Sweep(context.Background())
	require.Error(t, err)
	assert.Equal(t, shared.KindStoreUnavailable, shared.KindOf(err))
}

func TestSweepWriteFailureAborts(t *testing.T) {
	repo := newMemoryRepo()
	past := time.Now().Add(-time.Hour)
	seeded := seedAnnouncement(t, repo, &past, false)
	repo.batchErr = shared.NewError(shared.KindStoreUnavailable, "store down")

	sweeper := NewSweeper(repo, slog.Default())
	_, err := sweeper.Sweep(context.Background())
	require.Error(t, err)

	// A failed write leaves the batch unarchived; the scheduler retries.
	got, err := repo.Get(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived())
}
