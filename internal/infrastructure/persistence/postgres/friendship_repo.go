package postgres

import (
	"context"
	"fmt"

	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// FriendshipRepository implements friendship.Repository on PostgreSQL.
type FriendshipRepository struct {
	conn *Connection
}

// NewFriendshipRepository creates a FriendshipRepository.
func NewFriendshipRepository(conn *Connection) *FriendshipRepository {
	return &FriendshipRepository{conn: conn}
}

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, updated_at`

const aliasedUserColumns = `u.id, u.email, u.password_hash, u.name, u.avatar_url, u.university_id,
	u.xp, u.level, u.streak_count, u.total_study_hours, u.preferences, u.created_at, u.updated_at`

type friendshipWithUser struct {
	f *friendship.Friendship
	u *user.User
}

func scanFriendshipWithUser(row interface{ Scan(...any) error }) (*friendshipWithUser, error) {
	var f friendship.Friendship
	var u user.User
	err := row.Scan(
		&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt,
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.AvatarURL, &u.UniversityID,
		&u.XP, &u.Level, &u.StreakCount, &u.TotalStudyHours, &u.Preferences,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &friendshipWithUser{f: &f, u: &u}, nil
}

func scanFriendship(row interface{ Scan(...any) error }) (*friendship.Friendship, error) {
	var f friendship.Friendship
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create persists a new edge. The unordered-pair unique index turns a
// concurrent duplicate request into a unique violation.
func (r *FriendshipRepository) Create(ctx context.Context, f *friendship.Friendship) error {
	query := `
		INSERT INTO friendships (` + friendshipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.conn.Exec(ctx, query, f.ID, f.RequesterID, f.AddresseeID, f.Status, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrRequestAlreadySent
		}
		if IsForeignKeyViolation(err) {
			return shared.ErrUserNotFound
		}
		return fmt.Errorf("insert friendship: %w", err)
	}

	return nil
}

// GetByID returns the edge or shared.ErrFriendshipNotFound.
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*friendship.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`

	f, err := scanFriendship(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("select friendship: %w", err)
	}

	return f, nil
}

// FindBetween returns the edge between two users regardless of direction,
// or (nil, nil) when none exists.
func (r *FriendshipRepository) FindBetween(ctx context.Context, userA, userB string) (*friendship.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)`

	f, err := scanFriendship(r.conn.QueryRow(ctx, query, userA, userB))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select friendship between: %w", err)
	}

	return f, nil
}

// UpdateStatus persists a status transition.
func (r *FriendshipRepository) UpdateStatus(ctx context.Context, f *friendship.Friendship) error {
	query := `UPDATE friendships SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.conn.Exec(ctx, query, f.ID, f.Status, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update friendship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrFriendshipNotFound
	}

	return nil
}

// Delete removes the edge.
func (r *FriendshipRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.conn.Exec(ctx, `DELETE FROM friendships WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// ListFriends returns the user's accepted friends with profiles.
func (r *FriendshipRepository) ListFriends(ctx context.Context, userID string) ([]*friendship.FriendEntry, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       ` + aliasedUserColumns + `
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE f.status = 'accepted' AND (f.requester_id = $1 OR f.addressee_id = $1)
		ORDER BY u.name`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	var out []*friendship.FriendEntry
	for rows.Next() {
		entry, err := scanFriendshipWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		out = append(out, &friendship.FriendEntry{Friendship: entry.f, Friend: entry.u})
	}

	return out, rows.Err()
}

// ListIncoming returns pending requests addressed to the user, with the
// requester's profile.
func (r *FriendshipRepository) ListIncoming(ctx context.Context, userID string) ([]*friendship.RequestEntry, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       ` + aliasedUserColumns + `
		FROM friendships f
		JOIN users u ON u.id = f.requester_id
		WHERE f.status = 'pending' AND f.addressee_id = $1
		ORDER BY f.created_at DESC`

	return r.listRequests(ctx, query, userID)
}

// ListOutgoing returns pending requests the user has sent, with the
// addressee's profile.
func (r *FriendshipRepository) ListOutgoing(ctx context.Context, userID string) ([]*friendship.RequestEntry, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.updated_at,
		       ` + aliasedUserColumns + `
		FROM friendships f
		JOIN users u ON u.id = f.addressee_id
		WHERE f.status = 'pending' AND f.requester_id = $1
		ORDER BY f.created_at DESC`

	return r.listRequests(ctx, query, userID)
}

func (r *FriendshipRepository) listRequests(ctx context.Context, query, userID string) ([]*friendship.RequestEntry, error) {
	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*friendship.RequestEntry
	for rows.Next() {
		entry, err := scanFriendshipWithUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, &friendship.RequestEntry{Friendship: entry.f, Counterpart: entry.u})
	}

	return out, rows.Err()
}

// AcceptedFriendIDs returns the IDs of the user's accepted friends.
func (r *FriendshipRepository) AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		FROM friendships
		WHERE status = 'accepted' AND (requester_id = $1 OR addressee_id = $1)`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list friend ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan friend id: %w", err)
		}
		out = append(out, id)
	}

	return out, rows.Err()
}
