package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// SessionRepository implements session.Repository on PostgreSQL.
type SessionRepository struct {
	conn *Connection
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(conn *Connection) *SessionRepository {
	return &SessionRepository{conn: conn}
}

const sessionColumns = `id, user_id, start_time, end_time, duration, subject, task,
	completed, xp_earned, created_at`

func scanSession(row interface{ Scan(...any) error }) (*session.StudySession, error) {
	var s session.StudySession
	err := row.Scan(
		&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Duration, &s.Subject, &s.Task,
		&s.Completed, &s.XPEarned, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create persists a new active session. The partial unique index on open
// sessions turns a concurrent double-start into a unique violation.
func (r *SessionRepository) Create(ctx context.Context, s *session.StudySession) error {
	query := `
		INSERT INTO study_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.conn.Exec(ctx, query,
		s.ID, s.UserID, s.StartTime, s.EndTime, s.Duration, s.Subject, s.Task,
		s.Completed, s.XPEarned, s.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrActiveSessionExists
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByID returns the session or shared.ErrSessionNotFound.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.StudySession, error) {
	query := `SELECT ` + sessionColumns + ` FROM study_sessions WHERE id = $1`

	s, err := scanSession(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrSessionNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	return s, nil
}

// ActiveForUser returns the user's open session or (nil, nil).
func (r *SessionRepository) ActiveForUser(ctx context.Context, userID string) (*session.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND completed = FALSE AND end_time IS NULL`

	s, err := scanSession(r.conn.QueryRow(ctx, query, userID))
	if err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select active session: %w", err)
	}

	return s, nil
}

// Settle closes the session and folds the outcome into the user row in
// one transaction. The session update is conditional on the open state,
// so of two racing settlements exactly one sees an affected row; the
// other gets shared.ErrSessionNotFound. The user update computes the
// level from the incremented XP in the same statement, keeping the
// level/XP invariant under any interleaving.
func (r *SessionRepository) Settle(ctx context.Context, p session.SettleParams) (*session.StudySession, *user.User, error) {
	var (
		settled *session.StudySession
		owner   *user.User
	)

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		sessionQuery := `
			UPDATE study_sessions
			SET end_time = $3, duration = $4, completed = $5, xp_earned = $6
			WHERE id = $1 AND user_id = $2 AND completed = FALSE AND end_time IS NULL
			RETURNING ` + sessionColumns

		s, err := scanSession(tx.QueryRow(ctx, sessionQuery,
			p.SessionID, p.UserID, p.EndTime, p.ActualDuration, p.Completed, p.XPEarned))
		if err != nil {
			if IsNoRows(err) {
				return shared.ErrSessionNotFound
			}
			return fmt.Errorf("settle session: %w", err)
		}
		settled = s

		userQuery := `
			UPDATE users
			SET xp = xp + $2,
			    level = (xp + $2) / 100 + 1,
			    streak_count = streak_count + $3,
			    total_study_hours = total_study_hours + $4,
			    updated_at = NOW()
			WHERE id = $1
			RETURNING ` + userColumns

		u, err := scanUser(tx.QueryRow(ctx, userQuery, p.UserID, p.XPEarned, p.StreakDelta, p.HoursDelta))
		if err != nil {
			return fmt.Errorf("settle user counters: %w", err)
		}
		owner = u

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return settled, owner, nil
}

// ListForUser returns a page of the user's sessions, newest first, with
// the total matching count.
func (r *SessionRepository) ListForUser(ctx context.Context, userID string, f session.HistoryFilter) ([]*session.StudySession, int, error) {
	where := "user_id = $1"
	args := []any{userID}

	if f.Completed != nil {
		args = append(args, *f.Completed)
		where += " AND completed = $" + strconv.Itoa(len(args))
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		where += " AND subject = $" + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where += " AND start_time >= $" + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where += " AND start_time < $" + strconv.Itoa(len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM study_sessions WHERE " + where
	if err := r.conn.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	args = append(args, f.Limit, f.Offset())
	listQuery := fmt.Sprintf(`
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE %s
		ORDER BY start_time DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.conn.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}

	return out, total, rows.Err()
}

// CompletedSince returns the user's completed sessions starting at or
// after since, newest first.
func (r *SessionRepository) CompletedSince(ctx context.Context, userID string, since time.Time) ([]*session.StudySession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM study_sessions
		WHERE user_id = $1 AND completed = TRUE AND start_time >= $2
		ORDER BY start_time DESC`

	rows, err := r.conn.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.StudySession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// CountCompleted returns the user's lifetime completed session count.
func (r *SessionRepository) CountCompleted(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM study_sessions WHERE user_id = $1 AND completed = TRUE`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count completed sessions: %w", err)
	}
	return n, nil
}
