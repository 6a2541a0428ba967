package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/resono-hq/resono/internal/analyze"
	"github.com/resono-hq/resono/internal/announcements"
	"github.com/resono-hq/resono/internal/app"
	"github.com/resono-hq/resono/internal/identity"
	"github.com/resono-hq/resono/internal/profiles"
	"github.com/resono-hq/resono/internal/roles"
	"github.com/resono-hq/resono/internal/stats"
	"github.com/resono-hq/resono/internal/storage"
	"github.com/resono-hq/resono/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	verifier, err := identity.NewVerifier(identity.VerifierConfig{Secret: []byte(cfg.IdentityTokenSecret)})
	if err != nil {
		logger.Error("init token verifier", slog.Any("error", err))
		os.Exit(1)
	}
	identityMW := identity.Middleware{Verifier: verifier, Logger: logger}

	roleRepo := roles.NewRepository(dbpool)
	roleCache := roles.NewCache(redisClient, cfg.RoleCacheTTL)
	roleService := roles.NewService(roleRepo, roleCache, roles.Secrets{
		MasterPIN: cfg.RoleMasterPIN,
		AdminPIN:  cfg.RoleAdminPIN,
	}, logger)
	roleHandler := roles.NewHandler(logger, roleService)
	policy := roles.Middleware{Service: roleService, Logger: logger}

	analyzer := analyze.NewClient(cfg.AIGatewayURL, cfg.AIGatewayKey, cfg.AIModel, cfg.AITimeout)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	announcementRepo := announcements.NewRepository(dbpool)
	announcementService := announcements.NewService(announcementRepo, analyzer, logger)
	announcementService.WithReanalysis(func(ctx context.Context, id uuid.UUID) {
		if _, err := jobClient.EnqueueAnalyzeAnnouncement(ctx, id.String()); err != nil {
			logger.Warn("enqueue re-analysis", slog.Any("error", err))
		}
	})
	announcementHandler := announcements.NewHandler(logger, announcementService, analyzer, jobClient, policy)

	profileRepo := profiles.NewRepository(dbpool)
	profileHandler := profiles.NewHandler(logger, profiles.NewService(profileRepo, logger), policy)

	statsHandler := stats.NewHandler(logger, stats.NewService(stats.NewRepository(dbpool)), policy)

	store, err := storage.NewS3Store(ctx, storage.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		logger.Error("init object store", slog.Any("error", err))
		os.Exit(1)
	}
	uploadHandler := storage.NewHandler(logger, store, policy)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		Identity:             identityMW,
		Policy:               policy,
		RolesHandler:         roleHandler,
		AnnouncementsHandler: announcementHandler,
		ProfilesHandler:      profileHandler,
		UploadsHandler:       uploadHandler,
		StatsHandler:         statsHandler,
		JobHandler:           jobHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
