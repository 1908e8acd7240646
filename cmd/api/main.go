// Command api runs the FocusArena backend: REST API, websocket push, and
// the background maintenance jobs.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/focusarena/focusarena/config"
	"github.com/focusarena/focusarena/internal/domain/shared"
	httpiface "github.com/focusarena/focusarena/internal/interface/http"
	"github.com/focusarena/focusarena/internal/interface/http/handlers"
	"github.com/focusarena/focusarena/internal/interface/ws"
	"github.com/focusarena/focusarena/internal/infrastructure/messaging"
	"github.com/focusarena/focusarena/internal/infrastructure/persistence/postgres"
	"github.com/focusarena/focusarena/internal/infrastructure/persistence/redis"
	"github.com/focusarena/focusarena/internal/infrastructure/scheduler"
	"github.com/focusarena/focusarena/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Storage ──

	db, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.NewMigrator(db).Migrate(ctx); err != nil {
		return err
	}

	var cache *redis.Cache
	if cfg.Redis.Enabled() {
		cache, err = redis.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			// Cache is optional: run without it rather than refusing to start.
			logger.Warn("redis unavailable, continuing without cache", slog.Any("error", err))
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// ── Messaging ──

	local := messaging.NewBroadcaster(logger)
	defer local.Close()

	var broadcaster shared.Broadcaster = local
	if cache != nil {
		bridge := messaging.NewRedisBridge(ctx, local, cache.Client(), logger)
		defer bridge.Close()
		broadcaster = bridge
	}

	// ── Repositories ──

	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	achievementRepo := postgres.NewAchievementRepository(db)
	friendshipRepo := postgres.NewFriendshipRepository(db)
	campusRepo := postgres.NewCampusRepository(db)
	leaderboardRepo := postgres.NewLeaderboardRepository(db)

	// ── Services ──

	authService := service.NewAuthService(userRepo, tokenRepo, service.AuthConfig{
		JWTSecret:       cfg.Auth.JWTSecret,
		AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
		BcryptCost:      cfg.Auth.BcryptCost,
	}, logger)

	achievementService := service.NewAchievementService(achievementRepo, userRepo, sessionRepo, broadcaster, logger)
	sessionService := service.NewSessionService(sessionRepo, userRepo, achievementService, broadcaster, logger)
	friendService := service.NewFriendService(friendshipRepo, userRepo, broadcaster, logger)
	userService := service.NewUserService(userRepo, sessionRepo, campusRepo, friendshipRepo, logger)
	campusService := service.NewCampusService(campusRepo, logger)

	var lbCache service.Cache
	if cache != nil {
		lbCache = cache
	}
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, friendshipRepo, lbCache, cfg.Redis.LeaderboardTTL, logger)

	// ── Background jobs ──

	if cfg.Scheduler.Enabled {
		var warmer scheduler.LeaderboardWarmer
		if cache != nil {
			warmer = leaderboardService
		}
		jobs := scheduler.New(cfg.Scheduler, authService, warmer, logger)
		if err := jobs.Start(); err != nil {
			return err
		}
		defer jobs.Stop()
	}

	// ── HTTP + websocket ──

	hub := ws.NewHub(local, userRepo, cfg.Auth.JWTSecret, logger)

	server := httpiface.NewServer(cfg.HTTP, cfg.Auth.JWTSecret, httpiface.Handlers{
		Auth:         handlers.NewAuthHandler(authService),
		Sessions:     handlers.NewSessionHandler(sessionService),
		Achievements: handlers.NewAchievementHandler(achievementService),
		Friends:      handlers.NewFriendHandler(friendService),
		Leaderboards: handlers.NewLeaderboardHandler(leaderboardService),
		Users:        handlers.NewUserHandler(userService),
		Campuses:     handlers.NewCampusHandler(campusService),
		Health:       handlers.NewHealthHandler(db, cache, cfg.App.Version),
	}, hub, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Duration("timeout", cfg.App.ShutdownTimeout))

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- server.Shutdown()
	}()

	select {
	case err := <-shutdownDone:
		return err
	case <-time.After(cfg.App.ShutdownTimeout):
		logger.Warn("shutdown timed out, exiting")
		return nil
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.App.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", string(cfg.App.Environment)),
	)
}
