package announcements

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resono-hq/resono/internal/analyze"
	"github.com/resono-hq/resono/jobs"
)

func analyzeTask(t *testing.T, id string) *asynq.Task {
	t.Helper()
	task, err := jobs.NewAnalyzeAnnouncementTask(id)
	require.NoError(t, err)
	return task
}

func TestAnalyzeJobUpdatesMetadata(t *testing.T) {
	repo := newMemoryRepo()
	id := uuid.New()
	repo.rows[id] = Announcement{
		ID:       id,
		Title:    "Fire drill",
		Content:  "Evacuation drill on Friday.",
		Summary:  "fallback",
		Category: "General Info",
		Priority: PriorityMedium,
		Status:   StatusActive,
	}
	analyzer := &stubAnalyzer{result: analyze.Result{Summary: "Drill Friday", Category: "Events", Priority: "high"}}
	job := NewAnalyzeJob(repo, analyzer, slog.Default())

	require.NoError(t, job.Handle(context.Background(), analyzeTask(t, id.String())))

	got := repo.rows[id]
	assert.Equal(t, "Drill Friday", got.Summary)
	assert.Equal(t, "Events", got.Category)
	assert.Equal(t, PriorityHigh, got.Priority)
}

func TestAnalyzeJobSkipsArchived(t *testing.T) {
	repo := newMemoryRepo()
	id := uuid.New()
	repo.rows[id] = Announcement{ID: id, Title: "Old", Content: "c", Status: StatusArchived}
	analyzer := &stubAnalyzer{result: analyze.Result{Summary: "s", Category: "Events", Priority: "low"}}
	job := NewAnalyzeJob(repo, analyzer, slog.Default())

	require.NoError(t, job.Handle(context.Background(), analyzeTask(t, id.String())))
	assert.Zero(t, analyzer.calls)
}

func TestAnalyzeJobDoesNotRetryMissingAnnouncement(t *testing.T) {
	job := NewAnalyzeJob(newMemoryRepo(), &stubAnalyzer{}, slog.Default())

	err := job.Handle(context.Background(), analyzeTask(t, uuid.NewString()))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAnalyzeJobDoesNotRetryBadPayload(t *testing.T) {
	job := NewAnalyzeJob(newMemoryRepo(), &stubAnalyzer{}, slog.Default())

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskAnalyzeAnnouncement, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = job.Handle(context.Background(), analyzeTask(t, "not-a-uuid"))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestAnalyzeJobRetriesTransientFailure(t *testing.T) {
	repo := newMemoryRepo()
	id := uuid.New()
	repo.rows[id] = Announcement{ID: id, Title: "t", Content: "c", Status: StatusActive}
	job := NewAnalyzeJob(repo, &stubAnalyzer{err: analyze.ErrRateLimited}, slog.Default())

	err := job.Handle(context.Background(), analyzeTask(t, id.String()))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestAnalyzeJobAbandonsOnQuotaExhaustion(t *testing.T) {
	repo := newMemoryRepo()
	id := uuid.New()
	repo.rows[id] = Announcement{ID: id, Title: "t", Content: "c", Status: StatusActive}
	job := NewAnalyzeJob(repo, &stubAnalyzer{err: analyze.ErrQuotaExceeded}, slog.Default())

	err := job.Handle(context.Background(), analyzeTask(t, id.String()))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestSweepJobArchivesExpired(t *testing.T) {
	repo := newMemoryRepo()
	past := time.Now().Add(-time.Hour)
	id := uuid.New()
	repo.rows[id] = Announcement{ID: id, Title: "Expired", Deadline: &past, Status: StatusActive}
	job := NewSweepJob(NewSweeper(repo, slog.Default()), slog.Default())

	task, err := jobs.NewArchiveExpiredTask("test")
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.True(t, repo.rows[id].Archived())
}

func TestSweepJobDoesNotRetryBadPayload(t *testing.T) {
	job := NewSweepJob(NewSweeper(newMemoryRepo(), slog.Default()), slog.Default())

	err := job.Handle(context.Background(), asynq.NewTask(jobs.TaskArchiveExpired, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
