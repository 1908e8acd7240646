package session

import (
	"context"
	"time"

	"github.com/focusarena/focusarena/internal/domain/user"
)

// HistoryFilter narrows and paginates a user's session history.
type HistoryFilter struct {
	// Completed filters on the completed flag when non-nil.
	Completed *bool

	// Subject filters on an exact subject match when non-empty.
	Subject string

	// From/To bound the start time when non-zero.
	From time.Time
	To   time.Time

	// Page is 1-based; Limit is capped by the caller.
	Page  int
	Limit int
}

// Offset returns the row offset for the filter's page.
func (f HistoryFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit
}

// SettleParams carries the precomputed outcome of a session settlement.
// XPEarned and the streak increment were decided by the gamification
// engine before the write; the repository only applies them.
type SettleParams struct {
	SessionID string
	UserID    string

	EndTime        time.Time
	ActualDuration int
	Completed      bool
	XPEarned       int

	// StreakDelta is 1 for a completed session, 0 for an abandon.
	StreakDelta int

	// HoursDelta is the actual duration expressed in hours.
	HoursDelta float64
}

// Repository defines the persistence operations for study sessions.
type Repository interface {
	// Create persists a new active session. Returns
	// shared.ErrActiveSessionExists when the user already has one; the
	// single-active invariant is enforced with a partial unique index,
	// not application logic.
	Create(ctx context.Context, s *StudySession) error

	// GetByID returns the session or shared.ErrSessionNotFound.
	GetByID(ctx context.Context, id string) (*StudySession, error)

	// ActiveForUser returns the user's open session, or (nil, nil) when
	// there is none.
	ActiveForUser(ctx context.Context, userID string) (*StudySession, error)

	// Settle closes the session and folds the outcome into the owning
	// user's progression counters in one transaction. The session row is
	// updated with a conditional write that only matches an open session
	// owned by params.UserID; when zero rows match the session is gone,
	// already settled, or not the caller's, and
	// shared.ErrSessionNotFound is returned. Under concurrent settlement
	// of the same session exactly one caller wins.
	Settle(ctx context.Context, params SettleParams) (*StudySession, *user.User, error)

	// ListForUser returns a page of the user's sessions, newest first,
	// plus the total count matching the filter.
	ListForUser(ctx context.Context, userID string, filter HistoryFilter) ([]*StudySession, int, error)

	// CompletedSince returns the user's completed sessions with a start
	// time at or after since, newest first. A zero since returns all
	// completed sessions.
	CompletedSince(ctx context.Context, userID string, since time.Time) ([]*StudySession, error)

	// CountCompleted returns the user's lifetime completed session count.
	CountCompleted(ctx context.Context, userID string) (int, error)
}
