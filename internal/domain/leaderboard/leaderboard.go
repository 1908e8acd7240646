// Package leaderboard contains the ranking read model. Leaderboards are
// computed from users and their completed sessions; there is no separate
// score table to keep in sync.
package leaderboard

import (
	"errors"
	"time"
)

// Scope selects the population being ranked.
type Scope string

const (
	ScopeGlobal     Scope = "global"
	ScopeUniversity Scope = "university"
	ScopeFriends    Scope = "friends"
	ScopeSubject    Scope = "subject"
)

// Period selects the session window that contributes period counters.
// Ranking order is by lifetime XP for every period; the window only
// shapes the per-period counters shown next to each entry.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// Domain errors.
var (
	ErrUnknownScope  = errors.New("unknown leaderboard scope")
	ErrUnknownPeriod = errors.New("unknown leaderboard period")
)

// ParsePeriod validates a period string, defaulting empty to all-time.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return Period(s), nil
	case "":
		return PeriodAll, nil
	}
	return "", ErrUnknownPeriod
}

// Entry is one ranked row. Rank is 1-based and assigned after sorting;
// ties in XP are broken by user ID so pagination is stable.
type Entry struct {
	Rank int `json:"rank"`

	UserID    string `json:"userId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`

	UniversityID   string `json:"universityId,omitempty"`
	UniversityName string `json:"universityName,omitempty"`

	XP              int     `json:"xp"`
	Level           int     `json:"level"`
	StreakCount     int     `json:"streakCount"`
	TotalStudyHours float64 `json:"totalStudyHours"`

	// Period counters are derived from completed sessions inside the
	// requested window.
	PeriodSessions int     `json:"periodSessions"`
	PeriodHours    float64 `json:"periodHours"`
}

// Query describes one leaderboard request after validation.
type Query struct {
	Scope  Scope
	Period Period

	// WindowStart is the inclusive lower bound for period counters.
	// Zero means all-time.
	WindowStart time.Time

	// UniversityID is required for ScopeUniversity.
	UniversityID string

	// ViewerID and FriendIDs are set for ScopeFriends. The viewer is
	// always part of the ranked population.
	ViewerID  string
	FriendIDs []string

	// Subject is required for ScopeSubject; only users with at least one
	// completed session in the subject within the window are ranked.
	Subject string

	Page  int
	Limit int
}

// Offset returns the row offset for the query's page.
func (q Query) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * q.Limit
}

// Standing is a single user's own rank within a scope.
type Standing struct {
	Rank  int `json:"rank"`
	Total int `json:"total"`
	Entry *Entry `json:"entry,omitempty"`
}
