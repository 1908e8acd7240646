// Package scheduler runs the periodic maintenance jobs: refresh token
// purge and leaderboard cache warming. Jobs are best-effort; a failed run
// logs and waits for the next tick.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/focusarena/focusarena/config"
)

// TokenPurger removes expired refresh tokens.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// LeaderboardWarmer precomputes hot leaderboard pages.
type LeaderboardWarmer interface {
	Warm(ctx context.Context) error
}

// Scheduler owns the cron runner. Jobs run in cron's own goroutines; a
// job still running at the next tick is skipped rather than stacked.
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.SchedulerConfig
	logger *slog.Logger

	purger TokenPurger
	warmer LeaderboardWarmer
}

// New creates a scheduler. warmer may be nil when Redis is not
// configured; the warm job is then not registered.
func New(cfg config.SchedulerConfig, purger TokenPurger, warmer LeaderboardWarmer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
			cron.Recover(cron.DiscardLogger),
		)),
		cfg:    cfg,
		logger: logger,
		purger: purger,
		warmer: warmer,
	}
}

// Start registers and starts the jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.TokenPurgeSpec, s.runTokenPurge); err != nil {
		return err
	}

	if s.warmer != nil {
		if _, err := s.cron.AddFunc(s.cfg.LeaderboardWarmSpec, s.runLeaderboardWarm); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.String("token_purge", s.cfg.TokenPurgeSpec),
		slog.String("leaderboard_warm", s.cfg.LeaderboardWarmSpec),
		slog.Bool("warm_enabled", s.warmer != nil))

	return nil
}

// Stop stops the runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runTokenPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.purger.PurgeExpiredTokens(ctx)
	if err != nil {
		s.logger.Error("token purge failed", slog.Any("error", err))
		return
	}
	if n > 0 {
		s.logger.Info("purged expired refresh tokens", slog.Int64("count", n))
	}
}

func (s *Scheduler) runLeaderboardWarm() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.warmer.Warm(ctx); err != nil {
		s.logger.Error("leaderboard warm failed", slog.Any("error", err))
	}
}
