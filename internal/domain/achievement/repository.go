package achievement

import (
	"context"
	"time"
)

// Repository defines the persistence operations for the achievement
// catalog and per-user unlocks.
type Repository interface {
	// Create adds a catalog entry. Returns shared.ErrAchievementExists
	// when the name is taken.
	Create(ctx context.Context, a *Achievement) error

	// GetByID returns the entry or shared.ErrAchievementNotFound.
	GetByID(ctx context.Context, id string) (*Achievement, error)

	// ListAll returns the full catalog ordered by creation time.
	ListAll(ctx context.Context) ([]*Achievement, error)

	// ListUnlocked returns the user's earned achievements, most recent
	// first.
	ListUnlocked(ctx context.Context, userID string) ([]*Unlocked, error)

	// UnlockedIDs returns the set of achievement IDs the user has earned.
	UnlockedIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// Unlock records an unlock. The write is idempotent: when the user
	// already holds the achievement it reports created=false and no
	// error, so concurrent unlock attempts cannot double-award.
	Unlock(ctx context.Context, userID, achievementID string, at time.Time) (created bool, err error)
}
