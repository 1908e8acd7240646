package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sessionFixture struct {
	svc      *SessionService
	users    *fakeUserRepo
	sessions *fakeSessionRepo
	bus      *recordingBroadcaster
	now      time.Time
}

func newSessionFixture(t *testing.T, u *user.User, catalog ...*achievement.Achievement) *sessionFixture {
	t.Helper()

	users := newFakeUserRepo(u)
	sessions := newFakeSessionRepo(users)
	achievements := newFakeAchievementRepo(catalog...)
	bus := &recordingBroadcaster{}
	logger := discardLogger()

	achSvc := NewAchievementService(achievements, users, sessions, bus, logger)
	svc := NewSessionService(sessions, users, achSvc, bus, logger)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	fx := &sessionFixture{svc: svc, users: users, sessions: sessions, bus: bus, now: now}
	svc.now = func() time.Time { return fx.now }
	achSvc.now = svc.now

	return fx
}

func baseUser() *user.User {
	return &user.User{ID: "u1", Email: "u1@test.dev", Name: "Test User", XP: 0, Level: 1}
}

func TestStartSession(t *testing.T) {
	fx := newSessionFixture(t, baseUser())

	sess, err := fx.svc.Start(context.Background(), StartInput{
		UserID: "u1", Duration: 25, Subject: "math",
	})
	require.NoError(t, err)

	assert.True(t, sess.IsActive())
	assert.Equal(t, 25, sess.Duration)
	assert.Equal(t, 0, sess.XPEarned)
	assert.Len(t, fx.bus.byType(shared.EventSessionStarted), 1)
}

func TestStartSessionInvalidDuration(t *testing.T) {
	fx := newSessionFixture(t, baseUser())

	for _, d := range []int{0, -5, 481} {
		_, err := fx.svc.Start(context.Background(), StartInput{UserID: "u1", Duration: d})
		assert.True(t, shared.IsValidation(err), "duration %d", d)
	}
}

func TestStartSessionConflict(t *testing.T) {
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	_, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	// A second start while one session is open fails and creates no row.
	_, err = fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	assert.ErrorIs(t, err, shared.ErrConflict)

	_, total, err := fx.svc.History(ctx, "u1", session.HistoryFilter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestCompleteOnTime(t *testing.T) {
	// Intended 25, completed after exactly 25 minutes: 30 base + 7 bonus.
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25, Subject: "math"})
	require.NoError(t, err)

	res, err := fx.svc.Complete(ctx, CompleteInput{
		SessionID: sess.ID,
		UserID:    "u1",
		EndTime:   fx.now.Add(25 * time.Minute),
		Completed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 37, res.XPEarned)
	assert.Equal(t, 37, res.TotalXP)
	assert.False(t, res.LevelUp)
	assert.True(t, res.Session.Completed)
	assert.Equal(t, 25, res.Session.Duration)

	stored, err := fx.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 37, stored.XP)
	assert.Equal(t, 1, stored.StreakCount)
	assert.InDelta(t, 25.0/60, stored.TotalStudyHours, 1e-9)

	assert.Len(t, fx.bus.byType(shared.EventSessionCompleted), 1)
}

func TestCompleteOverrunNoBonus(t *testing.T) {
	// Intended 25, completed after 40 minutes: base only.
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	res, err := fx.svc.Complete(ctx, CompleteInput{
		SessionID: sess.ID,
		UserID:    "u1",
		EndTime:   fx.now.Add(40 * time.Minute),
		Completed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 48, res.XPEarned)
}

func TestCompleteLevelUp(t *testing.T) {
	u := baseUser()
	u.XP = 95
	fx := newSessionFixture(t, u)
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 30})
	require.NoError(t, err)

	// 9 elapsed minutes: floor(9*1.2)=10, delta 21 > 5 so no bonus.
	res, err := fx.svc.Complete(ctx, CompleteInput{
		SessionID: sess.ID,
		UserID:    "u1",
		EndTime:   fx.now.Add(9 * time.Minute),
		Completed: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 10, res.XPEarned)
	assert.Equal(t, 105, res.TotalXP)
	assert.Equal(t, 2, res.NewLevel)
	assert.True(t, res.LevelUp)
	assert.Len(t, fx.bus.byType(shared.EventLevelUp), 1)
}

func TestCompleteAbandoned(t *testing.T) {
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 60})
	require.NoError(t, err)

	res, err := fx.svc.Complete(ctx, CompleteInput{
		SessionID: sess.ID,
		UserID:    "u1",
		EndTime:   fx.now.Add(20 * time.Minute),
		Completed: false,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.XPEarned)
	assert.False(t, res.Session.Completed)
	assert.NotNil(t, res.Session.EndTime)

	stored, err := fx.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.XP)
	assert.Equal(t, 0, stored.StreakCount)
	// Abandoned time still counts toward total hours.
	assert.InDelta(t, 20.0/60, stored.TotalStudyHours, 1e-9)
}

func TestCompleteNotOwned(t *testing.T) {
	fx := newSessionFixture(t, baseUser())
	require.NoError(t, fx.users.Create(context.Background(), &user.User{ID: "u2", Email: "u2@test.dev", Name: "Other", Level: 1}))
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, CompleteInput{SessionID: sess.ID, UserID: "u2", Completed: true})
	assert.True(t, shared.IsNotFound(err))
}

func TestCompleteTwice(t *testing.T) {
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, CompleteInput{SessionID: sess.ID, UserID: "u1", Completed: true})
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, CompleteInput{SessionID: sess.ID, UserID: "u1", Completed: true})
	assert.True(t, shared.IsNotFound(err))
}

func TestConcurrentCompletions(t *testing.T) {
	// Two racing completions: exactly one wins, XP is awarded once.
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.svc.Complete(ctx, CompleteInput{
				SessionID: sess.ID,
				UserID:    "u1",
				EndTime:   fx.now.Add(25 * time.Minute),
				Completed: true,
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			assert.True(t, shared.IsNotFound(err))
		}
	}
	assert.Equal(t, 1, wins)

	stored, err := fx.users.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 37, stored.XP)
	assert.Equal(t, 1, stored.StreakCount)
}

func TestCompleteCampusBroadcast(t *testing.T) {
	u := baseUser()
	uni := "uni-1"
	u.UniversityID = &uni
	fx := newSessionFixture(t, u)
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	_, err = fx.svc.Complete(ctx, CompleteInput{
		SessionID: sess.ID, UserID: "u1",
		EndTime: fx.now.Add(25 * time.Minute), Completed: true,
	})
	require.NoError(t, err)

	campus := fx.bus.byType(shared.EventCampusActivity)
	require.Len(t, campus, 1)
	assert.Equal(t, shared.CampusChannel(uni), campus[0].Channel)
}

func TestCompleteUnlocksAchievements(t *testing.T) {
	catalog := []*achievement.Achievement{
		{ID: "a1", Name: "First Steps", XPReward: 10,
			Condition: achievement.Condition{Type: achievement.ConditionTotalSessions, Target: 1}},
	}
	fx := newSessionFixture(t, baseUser(), catalog...)
	ctx := context.Background()

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 25})
	require.NoError(t, err)

	res, err := fx.svc.Complete(ctx, CompleteInput{
		SessionID: sess.ID, UserID: "u1",
		EndTime: fx.now.Add(25 * time.Minute), Completed: true,
	})
	require.NoError(t, err)

	require.Len(t, res.Unlocked, 1)
	assert.Equal(t, "First Steps", res.Unlocked[0].Achievement.Name)
	// 37 session XP plus the 10 XP reward.
	assert.Equal(t, 47, res.TotalXP)
	assert.Len(t, fx.bus.byType(shared.EventAchievementUnlocked), 1)
}

func TestActiveSession(t *testing.T) {
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	active, err := fx.svc.Active(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, active)

	sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 50})
	require.NoError(t, err)

	fx.now = fx.now.Add(20 * time.Minute)
	active, err = fx.svc.Active(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, sess.ID, active.Session.ID)
	assert.Equal(t, 20, active.ElapsedMinutes)
	assert.Equal(t, 30, active.RemainingMinutes)
}

func TestAnalytics(t *testing.T) {
	fx := newSessionFixture(t, baseUser())
	ctx := context.Background()

	for i, subject := range []string{"math", "math", "physics"} {
		sess, err := fx.svc.Start(ctx, StartInput{UserID: "u1", Duration: 30, Subject: subject})
		require.NoError(t, err)
		_, err = fx.svc.Complete(ctx, CompleteInput{
			SessionID: sess.ID, UserID: "u1",
			EndTime: fx.now.Add(30 * time.Minute), Completed: true,
		})
		require.NoError(t, err)
		fx.now = fx.now.Add(time.Duration(i+1) * time.Hour)
	}

	a, err := fx.svc.Analytics(ctx, "u1", "month")
	require.NoError(t, err)

	assert.Equal(t, "month", a.Period)
	assert.Equal(t, 3, a.TotalSessions)
	assert.Equal(t, 90, a.TotalMinutes)
	require.Len(t, a.BySubject, 2)
	assert.Equal(t, "math", a.BySubject[0].Subject)
	assert.Equal(t, 2, a.BySubject[0].Sessions)

	_, err = fx.svc.Analytics(ctx, "u1", "year")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
