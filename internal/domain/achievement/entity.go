// Package achievement contains the achievement catalog model. Achievements
// are defined by an unlock condition stored as data, so new ones can be
// seeded without code changes as long as the condition type is known.
package achievement

import (
	"errors"
	"strings"
	"time"
)

// ConditionType enumerates the condition kinds the engine can evaluate.
// Conditions with a type outside this set are stored untouched and simply
// never unlock.
type ConditionType string

const (
	ConditionTotalStudyHours ConditionType = "total_study_hours"
	ConditionTotalSessions   ConditionType = "total_sessions"
	ConditionStreakDays      ConditionType = "streak_days"
	ConditionSubjectSessions ConditionType = "subject_sessions"
	ConditionDailyStudyHours ConditionType = "daily_study_hours"
	ConditionConsecutiveDays ConditionType = "consecutive_days"
	ConditionXPMilestone     ConditionType = "xp_milestone"
	ConditionLevelMilestone  ConditionType = "level_milestone"
)

// Timeframes for ConditionDailyStudyHours.
const (
	TimeframeToday = "today"
	TimeframeWeek  = "week"
)

// Condition is the unlock rule for an achievement. Target is the threshold
// the relevant counter must reach; Subject and Timeframe qualify the
// counter for the condition types that use them.
type Condition struct {
	Type      ConditionType `json:"type"`
	Target    float64       `json:"target"`
	Subject   string        `json:"subject,omitempty"`
	Timeframe string        `json:"timeframe,omitempty"`
}

// Known reports whether the condition type is one the engine evaluates.
func (c Condition) Known() bool {
	switch c.Type {
	case ConditionTotalStudyHours, ConditionTotalSessions, ConditionStreakDays,
		ConditionSubjectSessions, ConditionDailyStudyHours,
		ConditionConsecutiveDays, ConditionXPMilestone, ConditionLevelMilestone:
		return true
	}
	return false
}

// Achievement is a catalog entry. Name is unique.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	XPReward    int
	Condition   Condition
	CreatedAt   time.Time
}

// Domain errors.
var (
	ErrInvalidName     = errors.New("achievement name must be 1-100 chars")
	ErrNegativeReward  = errors.New("xp reward must be non-negative")
	ErrMissingCriteria = errors.New("achievement condition type is required")
)

// NewAchievement validates and creates a catalog entry.
func NewAchievement(id, name, description, icon string, xpReward int, cond Condition) (*Achievement, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, ErrInvalidName
	}
	if xpReward < 0 {
		return nil, ErrNegativeReward
	}
	if cond.Type == "" {
		return nil, ErrMissingCriteria
	}

	return &Achievement{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		Icon:        icon,
		XPReward:    xpReward,
		Condition:   cond,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Unlocked pairs a catalog entry with the moment a user earned it.
type Unlocked struct {
	*Achievement
	UnlockedAt time.Time
}

// Progress summarizes a user's position in the catalog.
type Progress struct {
	Total    int `json:"total"`
	Unlocked int `json:"unlocked"`
}
