package announcements

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/resono-hq/resono/internal/analyze"
	"github.com/resono-hq/resono/internal/shared"
	"github.com/resono-hq/resono/jobs"
)

// SweepJob processes expiry sweep tasks coming from the queue.
type SweepJob struct {
	sweeper *Sweeper
	logger  *slog.Logger
}

// NewSweepJob constructs a SweepJob handler.
func NewSweepJob(sweeper *Sweeper, logger *slog.Logger) *SweepJob {
	return &SweepJob{sweeper: sweeper, logger: logger}
}

// Handle fulfils the asynq.HandlerFunc contract. Returning an error lets
// asynq retry; the sweep is idempotent so at-least-once delivery is safe.
func (j *SweepJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.ArchiveExpiredPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	result, err := j.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	if j.logger != nil && result.Count > 0 {
		for _, item := range result.Archived {
			j.logger.Info("expired announcement archived",
				slog.String("id", item.ID.String()),
				slog.String("title", item.Title),
				slog.Time("deadline", item.Deadline),
				slog.String("triggered_by", payload.TriggeredBy))
		}
	}
	return nil
}

// AnalyzeJob retries analysis for announcements that were published with
// fallback metadata because the gateway was unavailable at creation time.
type AnalyzeJob struct {
	repo     Repository
	analyzer Analyzer
	logger   *slog.Logger
}

// NewAnalyzeJob constructs an AnalyzeJob handler.
func NewAnalyzeJob(repo Repository, analyzer Analyzer, logger *slog.Logger) *AnalyzeJob {
	return &AnalyzeJob{repo: repo, analyzer: analyzer, logger: logger}
}

// Handle fulfils the asynq.HandlerFunc contract. Transient analyzer failures
// return an error so asynq retries with backoff; a quota exhaustion or a
// vanished announcement is not retryable.
func (j *AnalyzeJob) Handle(ctx context.Context, task *asynq.Task) error {
	var payload jobs.AnalyzeAnnouncementPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	id, err := uuid.Parse(payload.AnnouncementID)
	if err != nil {
		return asynq.SkipRetry
	}

	a, err := j.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	if a.Archived() {
		return nil
	}

	result, err := j.analyzer.Analyze(ctx, a.Title, a.Content)
	if err != nil {
		if errors.Is(err, analyze.ErrQuotaExceeded) {
			if j.logger != nil {
				j.logger.Warn("analysis retry abandoned, quota exhausted", slog.String("id", id.String()))
			}
			return asynq.SkipRetry
		}
		return err
	}
	if !ValidPriority(Priority(result.Priority)) {
		return asynq.SkipRetry
	}

	if err := j.repo.UpdateAnalysis(ctx, id, result.Summary, result.Category, Priority(result.Priority)); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return asynq.SkipRetry
		}
		return err
	}
	if j.logger != nil {
		j.logger.Info("announcement re-analyzed",
			slog.String("id", id.String()),
			slog.String("category", result.Category),
			slog.String("priority", result.Priority))
	}
	return nil
}
