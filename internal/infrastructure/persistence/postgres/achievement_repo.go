package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/shared"
)

// AchievementRepository implements achievement.Repository on PostgreSQL.
// Conditions are stored as JSONB so the catalog can grow without schema
// changes.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates an AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

const achievementColumns = `id, name, description, icon, xp_reward, condition, created_at`

func scanAchievement(row interface{ Scan(...any) error }) (*achievement.Achievement, error) {
	var a achievement.Achievement
	err := row.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.XPReward, &a.Condition, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create adds a catalog entry.
func (r *AchievementRepository) Create(ctx context.Context, a *achievement.Achievement) error {
	query := `
		INSERT INTO achievements (` + achievementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.conn.Exec(ctx, query, a.ID, a.Name, a.Description, a.Icon, a.XPReward, a.Condition, a.CreatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAchievementExists
		}
		return fmt.Errorf("insert achievement: %w", err)
	}

	return nil
}

// GetByID returns the entry or shared.ErrAchievementNotFound.
func (r *AchievementRepository) GetByID(ctx context.Context, id string) (*achievement.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements WHERE id = $1`

	a, err := scanAchievement(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, fmt.Errorf("select achievement: %w", err)
	}

	return a, nil
}

// ListAll returns the full catalog in creation order.
func (r *AchievementRepository) ListAll(ctx context.Context) ([]*achievement.Achievement, error) {
	query := `SELECT ` + achievementColumns + ` FROM achievements ORDER BY created_at, id`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()

	var out []*achievement.Achievement
	for rows.Next() {
		a, err := scanAchievement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

// ListUnlocked returns the user's earned achievements, most recent first.
func (r *AchievementRepository) ListUnlocked(ctx context.Context, userID string) ([]*achievement.Unlocked, error) {
	query := `
		SELECT a.id, a.name, a.description, a.icon, a.xp_reward, a.condition, a.created_at,
		       ua.unlocked_at
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked achievements: %w", err)
	}
	defer rows.Close()

	var out []*achievement.Unlocked
	for rows.Next() {
		var a achievement.Achievement
		var at time.Time
		err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Icon, &a.XPReward, &a.Condition, &a.CreatedAt, &at)
		if err != nil {
			return nil, fmt.Errorf("scan unlocked achievement: %w", err)
		}
		out = append(out, &achievement.Unlocked{Achievement: &a, UnlockedAt: at})
	}

	return out, rows.Err()
}

// UnlockedIDs returns the set of achievement IDs the user holds.
func (r *AchievementRepository) UnlockedIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT achievement_id FROM user_achievements WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list unlocked ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan unlocked id: %w", err)
		}
		out[id] = struct{}{}
	}

	return out, rows.Err()
}

// Unlock records an unlock idempotently. ON CONFLICT DO NOTHING makes the
// concurrent double-unlock race harmless: the loser reports created=false.
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING`

	tag, err := r.conn.Exec(ctx, query, userID, achievementID, at)
	if err != nil {
		return false, fmt.Errorf("unlock achievement: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
