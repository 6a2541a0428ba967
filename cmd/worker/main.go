package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resono-hq/resono/internal/analyze"
	"github.com/resono-hq/resono/internal/announcements"
	"github.com/resono-hq/resono/internal/app"
	"github.com/resono-hq/resono/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	announcementRepo := announcements.NewRepository(pool)
	sweeper := announcements.NewSweeper(announcementRepo, logger)
	sweepJob := announcements.NewSweepJob(sweeper, logger)

	analyzer := analyze.NewClient(cfg.AIGatewayURL, cfg.AIGatewayKey, cfg.AIModel, cfg.AITimeout)
	analyzeJob := announcements.NewAnalyzeJob(announcementRepo, analyzer, logger)

	sweepTask, err := jobs.NewArchiveExpiredTask("schedule")
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskArchiveExpired, Handler: sweepJob.Handle},
			{Type: jobs.TaskAnalyzeAnnouncement, Handler: analyzeJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SweepInterval, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
