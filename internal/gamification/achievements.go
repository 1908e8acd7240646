package gamification

import (
	"time"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/user"
	"github.com/focusarena/focusarena/pkg/timeutil"
)

// Aggregates is the user state an achievement condition is evaluated
// against. It is assembled once per evaluation pass from the user row and
// the user's completed sessions.
type Aggregates struct {
	XP              int
	Level           int
	Streak          int
	TotalStudyHours float64

	CompletedSessions int
	SubjectSessions   map[string]int

	// Windowed study hours over completed sessions, bucketed by start
	// time. Today is the current UTC calendar day; the week window is a
	// rolling seven days.
	HoursToday    float64
	HoursThisWeek float64
}

// BuildAggregates folds the user's completed sessions into the counters
// conditions compare against. Sessions that are not completed contribute
// nothing.
func BuildAggregates(u *user.User, completed []*session.StudySession, now time.Time) Aggregates {
	agg := Aggregates{
		XP:              u.XP,
		Level:           u.Level,
		Streak:          u.StreakCount,
		TotalStudyHours: u.TotalStudyHours,
		SubjectSessions: make(map[string]int),
	}

	dayStart := timeutil.StartOfDay(now)
	weekStart := timeutil.RollingWeek(now)

	for _, s := range completed {
		if !s.Completed {
			continue
		}

		agg.CompletedSessions++
		if s.Subject != "" {
			agg.SubjectSessions[s.Subject]++
		}

		hours := float64(s.Duration) / 60
		if !s.StartTime.Before(dayStart) {
			agg.HoursToday += hours
		}
		if !s.StartTime.Before(weekStart) {
			agg.HoursThisWeek += hours
		}
	}

	return agg
}

// ConditionSatisfied evaluates a single unlock condition. It never
// errors: unknown condition types and malformed payloads evaluate to
// false so a bad catalog row cannot break session completion.
func ConditionSatisfied(cond achievement.Condition, agg Aggregates) bool {
	switch cond.Type {
	case achievement.ConditionTotalStudyHours:
		return agg.TotalStudyHours >= cond.Target

	case achievement.ConditionTotalSessions:
		return float64(agg.CompletedSessions) >= cond.Target

	case achievement.ConditionStreakDays, achievement.ConditionConsecutiveDays:
		// consecutive_days is an alias for the streak counter. True
		// per-day presence tracking would need a session calendar.
		return float64(agg.Streak) >= cond.Target

	case achievement.ConditionSubjectSessions:
		if cond.Subject == "" {
			return false
		}
		return float64(agg.SubjectSessions[cond.Subject]) >= cond.Target

	case achievement.ConditionDailyStudyHours:
		switch cond.Timeframe {
		case achievement.TimeframeToday, "":
			return agg.HoursToday >= cond.Target
		case achievement.TimeframeWeek:
			return agg.HoursThisWeek >= cond.Target
		}
		return false

	case achievement.ConditionXPMilestone:
		return float64(agg.XP) >= cond.Target

	case achievement.ConditionLevelMilestone:
		return float64(agg.Level) >= cond.Target
	}

	return false
}

// NewlyUnlockable returns the catalog entries whose conditions are now
// satisfied and that the user has not unlocked yet, in catalog order.
// Re-evaluating with unchanged aggregates returns nothing new once the
// unlocked set reflects a previous pass.
func NewlyUnlockable(catalog []*achievement.Achievement, unlocked map[string]struct{}, agg Aggregates) []*achievement.Achievement {
	var out []*achievement.Achievement

	for _, a := range catalog {
		if _, ok := unlocked[a.ID]; ok {
			continue
		}
		if ConditionSatisfied(a.Condition, agg) {
			out = append(out, a)
		}
	}

	return out
}
