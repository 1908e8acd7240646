package postgres

import (
	"context"
	"fmt"

	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// UserRepository implements user.Repository on PostgreSQL.
type UserRepository struct {
	conn *Connection
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{conn: conn}
}

const userColumns = `id, email, password_hash, name, avatar_url, university_id,
	xp, level, streak_count, total_study_hours, preferences, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarURL, &u.UniversityID,
		&u.XP, &u.Level, &u.StreakCount, &u.TotalStudyHours, &u.Preferences,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create persists a new user.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.conn.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.Name, u.AvatarURL, u.UniversityID,
		u.XP, u.Level, u.StreakCount, u.TotalStudyHours, u.Preferences,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrUserAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID returns the user or shared.ErrUserNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return u, nil
}

// GetByEmail returns the user matching the email case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	u, err := scanUser(r.conn.QueryRow(ctx, query, email))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}

	return u, nil
}

// UpdateProfile persists the editable profile fields.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET name = $2, avatar_url = $3, university_id = $4, preferences = $5, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, u.ID, u.Name, u.AvatarURL, u.UniversityID, u.Preferences)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrUserNotFound
	}

	return nil
}

// AwardXP adds XP and recomputes the level in a single statement, so the
// level/XP invariant holds even under concurrent awards.
func (r *UserRepository) AwardXP(ctx context.Context, userID string, delta int) (*user.User, error) {
	query := `
		UPDATE users
		SET xp = xp + $2,
		    level = (xp + $2) / 100 + 1,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.conn.QueryRow(ctx, query, userID, delta))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrUserNotFound
		}
		return nil, fmt.Errorf("award xp: %w", err)
	}

	return u, nil
}

// Search finds users by name or email fragment, excluding the viewer.
func (r *UserRepository) Search(ctx context.Context, viewerID, query string, limit int) ([]*user.User, error) {
	sql := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id <> $1
		  AND (name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3`

	rows, err := r.conn.Query(ctx, sql, viewerID, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}

	return out, rows.Err()
}
