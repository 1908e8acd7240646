package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/user"
)

var testNow = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

func testUser(xp, streak int, hours float64) *user.User {
	return &user.User{
		ID:              "u1",
		XP:              xp,
		Level:           user.LevelForXP(xp),
		StreakCount:     streak,
		TotalStudyHours: hours,
	}
}

func completedSession(start time.Time, minutes int, subject string) *session.StudySession {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return &session.StudySession{
		ID:        "s-" + start.Format(time.RFC3339),
		UserID:    "u1",
		StartTime: start,
		EndTime:   &end,
		Duration:  minutes,
		Subject:   subject,
		Completed: true,
	}
}

func TestBuildAggregates(t *testing.T) {
	sessions := []*session.StudySession{
		completedSession(testNow.Add(-2*time.Hour), 60, "math"),          // today
		completedSession(testNow.Add(-3*24*time.Hour), 30, "math"),       // this week
		completedSession(testNow.Add(-10*24*time.Hour), 120, "physics"),  // older
		{ID: "open", UserID: "u1", StartTime: testNow, Completed: false}, // ignored
	}

	agg := BuildAggregates(testUser(250, 4, 3.5), sessions, testNow)

	assert.Equal(t, 250, agg.XP)
	assert.Equal(t, 3, agg.Level)
	assert.Equal(t, 4, agg.Streak)
	assert.Equal(t, 3.5, agg.TotalStudyHours)
	assert.Equal(t, 3, agg.CompletedSessions)
	assert.Equal(t, 2, agg.SubjectSessions["math"])
	assert.Equal(t, 1, agg.SubjectSessions["physics"])
	assert.InDelta(t, 1.0, agg.HoursToday, 1e-9)
	assert.InDelta(t, 1.5, agg.HoursThisWeek, 1e-9)
}

func TestConditionSatisfied(t *testing.T) {
	agg := Aggregates{
		XP:                350,
		Level:             4,
		Streak:            7,
		TotalStudyHours:   12.5,
		CompletedSessions: 20,
		SubjectSessions:   map[string]int{"math": 5},
		HoursToday:        2,
		HoursThisWeek:     9,
	}

	cases := []struct {
		name string
		cond achievement.Condition
		want bool
	}{
		{"hours met", achievement.Condition{Type: achievement.ConditionTotalStudyHours, Target: 10}, true},
		{"hours unmet", achievement.Condition{Type: achievement.ConditionTotalStudyHours, Target: 13}, false},
		{"sessions met", achievement.Condition{Type: achievement.ConditionTotalSessions, Target: 20}, true},
		{"streak met", achievement.Condition{Type: achievement.ConditionStreakDays, Target: 7}, true},
		{"consecutive aliases streak", achievement.Condition{Type: achievement.ConditionConsecutiveDays, Target: 7}, true},
		{"subject met", achievement.Condition{Type: achievement.ConditionSubjectSessions, Subject: "math", Target: 5}, true},
		{"subject unmet", achievement.Condition{Type: achievement.ConditionSubjectSessions, Subject: "biology", Target: 1}, false},
		{"subject missing name", achievement.Condition{Type: achievement.ConditionSubjectSessions, Target: 1}, false},
		{"daily today", achievement.Condition{Type: achievement.ConditionDailyStudyHours, Timeframe: achievement.TimeframeToday, Target: 2}, true},
		{"daily week", achievement.Condition{Type: achievement.ConditionDailyStudyHours, Timeframe: achievement.TimeframeWeek, Target: 8}, true},
		{"daily bad timeframe", achievement.Condition{Type: achievement.ConditionDailyStudyHours, Timeframe: "month", Target: 1}, false},
		{"xp milestone", achievement.Condition{Type: achievement.ConditionXPMilestone, Target: 300}, true},
		{"level milestone", achievement.Condition{Type: achievement.ConditionLevelMilestone, Target: 5}, false},
		{"unknown type", achievement.Condition{Type: "moon_phase", Target: 1}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ConditionSatisfied(tc.cond, agg))
		})
	}
}

func TestNewlyUnlockable(t *testing.T) {
	catalog := []*achievement.Achievement{
		{ID: "a1", Name: "First Steps", Condition: achievement.Condition{Type: achievement.ConditionTotalSessions, Target: 1}, XPReward: 10},
		{ID: "a2", Name: "Marathon", Condition: achievement.Condition{Type: achievement.ConditionTotalStudyHours, Target: 100}, XPReward: 200},
		{ID: "a3", Name: "Streak Week", Condition: achievement.Condition{Type: achievement.ConditionStreakDays, Target: 7}, XPReward: 50},
	}

	agg := Aggregates{CompletedSessions: 3, Streak: 8, TotalStudyHours: 4}

	unlocked := NewlyUnlockable(catalog, map[string]struct{}{}, agg)
	require.Len(t, unlocked, 2)
	assert.Equal(t, "a1", unlocked[0].ID)
	assert.Equal(t, "a3", unlocked[1].ID)
}

func TestNewlyUnlockableIdempotent(t *testing.T) {
	catalog := []*achievement.Achievement{
		{ID: "a1", Condition: achievement.Condition{Type: achievement.ConditionTotalSessions, Target: 1}},
	}
	agg := Aggregates{CompletedSessions: 5}

	first := NewlyUnlockable(catalog, map[string]struct{}{}, agg)
	require.Len(t, first, 1)

	// A second pass with the unlock recorded and unchanged aggregates
	// yields nothing.
	second := NewlyUnlockable(catalog, map[string]struct{}{"a1": {}}, agg)
	assert.Empty(t, second)
}
