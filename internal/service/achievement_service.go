package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
	"github.com/focusarena/focusarena/internal/gamification"
)

// AchievementService manages the catalog and evaluates unlock conditions
// against user aggregates.
type AchievementService struct {
	achievements achievement.Repository
	users        user.Repository
	sessions     session.Repository
	broadcaster  shared.Broadcaster
	logger       *slog.Logger

	now func() time.Time
}

// NewAchievementService creates an AchievementService.
func NewAchievementService(
	achievements achievement.Repository,
	users user.Repository,
	sessions session.Repository,
	broadcaster shared.Broadcaster,
	logger *slog.Logger,
) *AchievementService {
	if broadcaster == nil {
		broadcaster = shared.NopBroadcaster{}
	}

	return &AchievementService{
		achievements: achievements,
		users:        users,
		sessions:     sessions,
		broadcaster:  broadcaster,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// UnlockedAchievement is one unlock produced by an evaluation pass,
// together with the user's XP state after its reward was applied.
type UnlockedAchievement struct {
	Achievement *achievement.Achievement
	UnlockedAt  time.Time

	// TotalXP and NewLevel reflect the user after this reward.
	TotalXP  int
	NewLevel int
}

// CheckAndUnlock evaluates every locked achievement against the user's
// current aggregates and unlocks the satisfied ones. Each unlock awards
// its XP reward, which can cascade into further level-ups. The unlock
// write is idempotent, so a concurrent evaluation pass cannot
// double-award: the loser of the insert race skips the reward.
func (s *AchievementService) CheckAndUnlock(ctx context.Context, userID string) ([]*UnlockedAchievement, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.achievements.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	unlockedIDs, err := s.achievements.UnlockedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := s.sessions.CompletedSince(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}

	agg := gamification.BuildAggregates(u, completed, s.now())
	candidates := gamification.NewlyUnlockable(catalog, unlockedIDs, agg)
	if len(candidates) == 0 {
		return nil, nil
	}

	var out []*UnlockedAchievement
	levelBefore := u.Level

	for _, a := range candidates {
		at := s.now()
		created, err := s.achievements.Unlock(ctx, userID, a.ID, at)
		if err != nil {
			return out, err
		}
		if !created {
			continue
		}

		updated, err := s.users.AwardXP(ctx, userID, a.XPReward)
		if err != nil {
			return out, err
		}

		ua := &UnlockedAchievement{
			Achievement: a,
			UnlockedAt:  at,
			TotalXP:     updated.XP,
			NewLevel:    updated.Level,
		}
		out = append(out, ua)

		s.broadcaster.Publish(shared.NewEvent(shared.EventAchievementUnlocked, shared.UserChannel(userID), map[string]any{
			"achievementId": a.ID,
			"name":          a.Name,
			"icon":          a.Icon,
			"xpReward":      a.XPReward,
		}))

		if updated.Level > levelBefore {
			s.broadcaster.Publish(shared.NewEvent(shared.EventLevelUp, shared.UserChannel(userID), map[string]any{
				"newLevel": updated.Level,
				"totalXP":  updated.XP,
			}))
			levelBefore = updated.Level
		}

		s.logger.Info("achievement unlocked",
			slog.String("user_id", userID),
			slog.String("achievement", a.Name),
			slog.Int("xp_reward", a.XPReward))
	}

	return out, nil
}

// Catalog returns every achievement.
func (s *AchievementService) Catalog(ctx context.Context) ([]*achievement.Achievement, error) {
	return s.achievements.ListAll(ctx)
}

// ForUser returns the user's unlocked achievements plus catalog progress.
func (s *AchievementService) ForUser(ctx context.Context, userID string) ([]*achievement.Unlocked, achievement.Progress, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, achievement.Progress{}, err
	}

	unlocked, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, achievement.Progress{}, err
	}

	catalog, err := s.achievements.ListAll(ctx)
	if err != nil {
		return nil, achievement.Progress{}, err
	}

	return unlocked, achievement.Progress{Total: len(catalog), Unlocked: len(unlocked)}, nil
}

// CreateAchievementInput is the payload for adding a catalog entry.
type CreateAchievementInput struct {
	Name        string
	Description string
	Icon        string
	XPReward    int
	Condition   achievement.Condition
}

// Create adds an achievement to the catalog.
func (s *AchievementService) Create(ctx context.Context, in CreateAchievementInput) (*achievement.Achievement, error) {
	if in.XPReward > 1000 {
		return nil, shared.NewDomainError("achievement", "Create", shared.ErrValueOutOfRange, "xp reward must be 0-1000")
	}

	a, err := achievement.NewAchievement(uuid.NewString(), in.Name, in.Description, in.Icon, in.XPReward, in.Condition)
	if err != nil {
		return nil, shared.WrapError("achievement", "Create", shared.ErrInvalidInput, "invalid achievement", err)
	}

	if !a.Condition.Known() {
		s.logger.Warn("achievement created with unsupported condition type; it will never unlock",
			slog.String("name", a.Name),
			slog.String("condition_type", string(a.Condition.Type)))
	}

	if err := s.achievements.Create(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}
