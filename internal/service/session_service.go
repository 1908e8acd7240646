// Package service contains the application services that orchestrate
// domain logic, persistence and notifications. Services hold no mutable
// state of their own; every dependency is injected at construction.
package service

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
	"github.com/focusarena/focusarena/internal/gamification"
	"github.com/focusarena/focusarena/pkg/timeutil"
)

// SessionService implements the session lifecycle: start, complete,
// abandon, and the read paths over a user's history.
type SessionService struct {
	sessions     session.Repository
	users        user.Repository
	achievements *AchievementService
	broadcaster  shared.Broadcaster
	logger       *slog.Logger

	now func() time.Time
}

// NewSessionService creates a SessionService.
func NewSessionService(
	sessions session.Repository,
	users user.Repository,
	achievements *AchievementService,
	broadcaster shared.Broadcaster,
	logger *slog.Logger,
) *SessionService {
	if broadcaster == nil {
		broadcaster = shared.NopBroadcaster{}
	}

	return &SessionService{
		sessions:     sessions,
		users:        users,
		achievements: achievements,
		broadcaster:  broadcaster,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// StartInput is the payload for starting a session.
type StartInput struct {
	UserID   string
	Duration int
	Subject  string
	Task     string
}

// Start opens a new session for the user. At most one session per user is
// open at any time; a second start fails with the active-session conflict.
func (s *SessionService) Start(ctx context.Context, in StartInput) (*session.StudySession, error) {
	if in.Duration < session.MinDuration || in.Duration > session.MaxDuration {
		return nil, shared.ErrInvalidDuration
	}

	u, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	sess, err := session.NewStudySession(uuid.NewString(), in.UserID, in.Duration, in.Subject, in.Task, s.now())
	if err != nil {
		return nil, shared.WrapError("session", "Start", shared.ErrInvalidInput, "invalid session", err)
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(shared.NewEvent(shared.EventSessionStarted, shared.UserChannel(u.ID), map[string]any{
		"sessionId": sess.ID,
		"subject":   sess.Subject,
		"duration":  sess.Duration,
		"startTime": sess.StartTime,
	}))

	s.logger.Info("session started",
		slog.String("session_id", sess.ID),
		slog.String("user_id", u.ID),
		slog.Int("duration", sess.Duration))

	return sess, nil
}

// CompleteInput is the payload for settling a session. A zero EndTime
// defaults to now; Completed false records an abandon.
type CompleteInput struct {
	SessionID string
	UserID    string
	EndTime   time.Time
	Completed bool
}

// CompleteResult is the outcome of a settlement, including any
// achievements unlocked by the new aggregates.
type CompleteResult struct {
	Session  *session.StudySession
	XPEarned int
	TotalXP  int
	NewLevel int
	LevelUp  bool

	Unlocked []*UnlockedAchievement
}

// Complete settles the session: it computes the actual duration, asks the
// gamification engine for the award, persists session and user mutations
// atomically, then runs achievement evaluation and emits notifications.
// Concurrent completions of the same session resolve to exactly one
// winner; the loser sees the not-found error.
func (s *SessionService) Complete(ctx context.Context, in CompleteInput) (*CompleteResult, error) {
	sess, err := s.sessions.GetByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if sess.UserID != in.UserID || !sess.IsActive() {
		return nil, shared.ErrSessionNotFound
	}

	u, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	endTime := in.EndTime
	if endTime.IsZero() {
		endTime = s.now()
	}
	actual := sess.ActualDuration(endTime)

	settlement := gamification.SettleSession(u.XP, u.Level, sess.Duration, actual, in.Completed)

	streakDelta := 0
	if in.Completed {
		streakDelta = 1
	}

	updatedSess, updatedUser, err := s.sessions.Settle(ctx, session.SettleParams{
		SessionID:      sess.ID,
		UserID:         u.ID,
		EndTime:        endTime,
		ActualDuration: actual,
		Completed:      in.Completed,
		XPEarned:       settlement.XPEarned,
		StreakDelta:    streakDelta,
		HoursDelta:     float64(actual) / 60,
	})
	if err != nil {
		return nil, err
	}

	result := &CompleteResult{
		Session:  updatedSess,
		XPEarned: settlement.XPEarned,
		TotalXP:  updatedUser.XP,
		NewLevel: updatedUser.Level,
		LevelUp:  updatedUser.Level > u.Level,
	}

	// Achievement evaluation runs after the settlement commit. A failure
	// here must not fail the completion: the next evaluation pass will
	// pick the unlocks up from the same aggregates.
	unlocked, err := s.achievements.CheckAndUnlock(ctx, u.ID)
	if err != nil {
		s.logger.Warn("achievement check failed after completion",
			slog.String("user_id", u.ID), slog.Any("error", err))
	} else {
		result.Unlocked = unlocked
		for _, ua := range unlocked {
			result.TotalXP = ua.TotalXP
			result.NewLevel = ua.NewLevel
			if ua.NewLevel > u.Level {
				result.LevelUp = true
			}
		}
	}

	s.publishCompletion(updatedUser, result)

	return result, nil
}

// publishCompletion emits the post-settlement events: the user's own
// completion, a level-up if any, and a campus broadcast for affiliated
// users. Publishing is fire-and-forget.
func (s *SessionService) publishCompletion(u *user.User, res *CompleteResult) {
	s.broadcaster.Publish(shared.NewEvent(shared.EventSessionCompleted, shared.UserChannel(u.ID), map[string]any{
		"sessionId": res.Session.ID,
		"xpEarned":  res.XPEarned,
		"totalXP":   res.TotalXP,
		"completed": res.Session.Completed,
	}))

	if res.LevelUp {
		s.broadcaster.Publish(shared.NewEvent(shared.EventLevelUp, shared.UserChannel(u.ID), map[string]any{
			"newLevel": res.NewLevel,
			"totalXP":  res.TotalXP,
		}))
	}

	if res.Session.Completed && u.HasUniversity() {
		s.broadcaster.Publish(shared.NewEvent(shared.EventCampusActivity, shared.CampusChannel(*u.UniversityID), map[string]any{
			"userId":   u.ID,
			"name":     u.Name,
			"subject":  res.Session.Subject,
			"duration": res.Session.Duration,
			"xpEarned": res.XPEarned,
		}))
	}
}

// ActiveSession holds the open session plus derived timer state.
type ActiveSession struct {
	Session          *session.StudySession
	ElapsedMinutes   int
	RemainingMinutes int
}

// Active returns the user's open session with elapsed and remaining
// minutes, or nil when the user is idle.
func (s *SessionService) Active(ctx context.Context, userID string) (*ActiveSession, error) {
	sess, err := s.sessions.ActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}

	now := s.now()
	return &ActiveSession{
		Session:          sess,
		ElapsedMinutes:   sess.Elapsed(now),
		RemainingMinutes: sess.Remaining(now),
	}, nil
}

// History returns a page of the user's sessions, newest first.
func (s *SessionService) History(ctx context.Context, userID string, filter session.HistoryFilter) ([]*session.StudySession, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.sessions.ListForUser(ctx, userID, filter)
}

// SubjectStat aggregates completed sessions per subject.
type SubjectStat struct {
	Subject  string  `json:"subject"`
	Sessions int     `json:"sessions"`
	Minutes  int     `json:"minutes"`
	Hours    float64 `json:"hours"`
	XPEarned int     `json:"xpEarned"`
}

// DailyStat aggregates completed sessions per UTC calendar day.
type DailyStat struct {
	Date     string  `json:"date"`
	Sessions int     `json:"sessions"`
	Minutes  int     `json:"minutes"`
	Hours    float64 `json:"hours"`
	XPEarned int     `json:"xpEarned"`
}

// Analytics summarizes a user's completed sessions over a period window.
type Analytics struct {
	Period            string        `json:"period"`
	Since             time.Time     `json:"since"`
	TotalSessions     int           `json:"totalSessions"`
	TotalMinutes      int           `json:"totalMinutes"`
	TotalHours        float64       `json:"totalHours"`
	TotalXP           int           `json:"totalXP"`
	AvgSessionMinutes float64       `json:"avgSessionMinutes"`
	BySubject         []SubjectStat `json:"bySubject"`
	ByDay             []DailyStat   `json:"byDay"`
}

// Analytics aggregates the user's completed sessions inside the period
// window (day, week, or month; empty defaults to month) into per-subject
// and per-day breakdowns.
func (s *SessionService) Analytics(ctx context.Context, userID, period string) (*Analytics, error) {
	now := s.now()

	var since time.Time
	switch period {
	case "day":
		since = timeutil.StartOfDay(now)
	case "week":
		since = timeutil.RollingWeek(now)
	case "month", "":
		period = "month"
		since = timeutil.StartOfMonth(now)
	default:
		return nil, shared.NewDomainError("session", "Analytics", shared.ErrInvalidInput, "period must be day, week, or month")
	}

	sessions, err := s.sessions.CompletedSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	out := &Analytics{Period: period, Since: since}
	bySubject := make(map[string]*SubjectStat)
	byDay := make(map[string]*DailyStat)

	for _, sess := range sessions {
		out.TotalSessions++
		out.TotalMinutes += sess.Duration
		out.TotalXP += sess.XPEarned

		subject := sess.Subject
		if subject == "" {
			subject = "general"
		}
		ss, ok := bySubject[subject]
		if !ok {
			ss = &SubjectStat{Subject: subject}
			bySubject[subject] = ss
		}
		ss.Sessions++
		ss.Minutes += sess.Duration
		ss.XPEarned += sess.XPEarned

		day := sess.StartTime.UTC().Format("2006-01-02")
		ds, ok := byDay[day]
		if !ok {
			ds = &DailyStat{Date: day}
			byDay[day] = ds
		}
		ds.Sessions++
		ds.Minutes += sess.Duration
		ds.XPEarned += sess.XPEarned
	}

	out.TotalHours = float64(out.TotalMinutes) / 60
	if out.TotalSessions > 0 {
		out.AvgSessionMinutes = float64(out.TotalMinutes) / float64(out.TotalSessions)
	}

	for _, ss := range bySubject {
		ss.Hours = float64(ss.Minutes) / 60
		out.BySubject = append(out.BySubject, *ss)
	}
	for _, ds := range byDay {
		ds.Hours = float64(ds.Minutes) / 60
		out.ByDay = append(out.ByDay, *ds)
	}

	// Most studied subject first; days in chronological order (date
	// strings sort lexicographically).
	sort.Slice(out.BySubject, func(i, j int) bool {
		return out.BySubject[i].Minutes > out.BySubject[j].Minutes
	})
	sort.Slice(out.ByDay, func(i, j int) bool {
		return out.ByDay[i].Date < out.ByDay[j].Date
	})

	return out, nil
}
