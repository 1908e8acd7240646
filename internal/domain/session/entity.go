// Package session contains the study session domain model and the state
// machine rules governing its lifecycle. A session is Active from start
// until it is settled exactly once; afterwards it is immutable.
package session

import (
	"errors"
	"time"
)

// Intended duration bounds in minutes (1 minute to 8 hours).
const (
	MinDuration = 1
	MaxDuration = 480
)

// StudySession belongs to exactly one user.
//
// The Duration field holds the intended minutes at creation and the actual
// elapsed minutes after completion, mirroring the single column the API
// exposes.
type StudySession struct {
	ID     string
	UserID string

	StartTime time.Time

	// EndTime is nil while the session is active.
	EndTime *time.Time

	// Duration is the intended duration in minutes until settlement,
	// the actual elapsed minutes afterwards.
	Duration int

	// Subject and Task are optional free-text labels.
	Subject string
	Task    string

	// Completed is false while active and after an abandon.
	Completed bool

	// XPEarned is 0 until completion.
	XPEarned int

	CreatedAt time.Time
}

// Domain errors.
var (
	ErrDurationOutOfRange = errors.New("intended duration must be between 1 and 480 minutes")
	ErrAlreadySettled     = errors.New("session already settled")
)

// NewStudySession creates a new active session. The active-session
// invariant (at most one open session per user) is enforced at the storage
// layer; this factory only validates the input.
func NewStudySession(id, userID string, intendedDuration int, subject, task string, now time.Time) (*StudySession, error) {
	if id == "" || userID == "" {
		return nil, errors.New("session id and user id are required")
	}

	if intendedDuration < MinDuration || intendedDuration > MaxDuration {
		return nil, ErrDurationOutOfRange
	}

	return &StudySession{
		ID:        id,
		UserID:    userID,
		StartTime: now,
		Duration:  intendedDuration,
		Subject:   subject,
		Task:      task,
		Completed: false,
		XPEarned:  0,
		CreatedAt: now,
	}, nil
}

// IsActive reports whether the session is still open.
func (s *StudySession) IsActive() bool {
	return !s.Completed && s.EndTime == nil
}

// ActualDuration computes the elapsed minutes between start and the given
// end time, rounded to the nearest minute and clamped to zero.
func (s *StudySession) ActualDuration(endTime time.Time) int {
	minutes := int(endTime.Sub(s.StartTime).Round(time.Minute) / time.Minute)
	if minutes < 0 {
		return 0
	}
	return minutes
}

// Elapsed returns the minutes elapsed since start.
func (s *StudySession) Elapsed(now time.Time) int {
	return s.ActualDuration(now)
}

// Remaining returns the intended minutes left, clamped to zero. Only
// meaningful for active sessions.
func (s *StudySession) Remaining(now time.Time) int {
	remaining := s.Duration - s.Elapsed(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Settle transitions the session to its terminal state. It may be applied
// exactly once; the storage layer guards the same transition with a
// conditional update so concurrent settlements cannot both succeed.
func (s *StudySession) Settle(endTime time.Time, actualDuration int, completed bool, xpEarned int) error {
	if !s.IsActive() {
		return ErrAlreadySettled
	}

	end := endTime
	s.EndTime = &end
	s.Duration = actualDuration
	s.Completed = completed
	s.XPEarned = xpEarned

	return nil
}
