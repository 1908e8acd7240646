package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/leaderboard"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/pkg/timeutil"
)

// Cache is the read-through cache the leaderboard service uses. A nil
// Cache disables caching; implementations must treat backend failures as
// misses rather than errors so a cache outage never fails a read.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// LeaderboardService builds ranked views. Rankings are recomputed from
// storage on every request; the cache only shortens the window during
// which repeated identical reads hit the database.
type LeaderboardService struct {
	boards      leaderboard.Repository
	friendships friendship.Repository
	cache       Cache
	cacheTTL    time.Duration
	logger      *slog.Logger

	now func() time.Time
}

// NewLeaderboardService creates a LeaderboardService. cache may be nil.
func NewLeaderboardService(
	boards leaderboard.Repository,
	friendships friendship.Repository,
	cache Cache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *LeaderboardService {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}

	return &LeaderboardService{
		boards:      boards,
		friendships: friendships,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Page is one leaderboard page.
type Page struct {
	Scope   leaderboard.Scope    `json:"scope"`
	Period  leaderboard.Period   `json:"period"`
	Entries []*leaderboard.Entry `json:"entries"`
	Total   int                  `json:"total"`
	PageNum int                  `json:"page"`
	Limit   int                  `json:"limit"`
}

// Request describes one leaderboard read before validation.
type Request struct {
	Scope        leaderboard.Scope
	Period       string
	UniversityID string
	Subject      string
	ViewerID     string
	Page         int
	Limit        int
}

// Get returns one page of the requested leaderboard.
func (s *LeaderboardService) Get(ctx context.Context, req Request) (*Page, error) {
	q, err := s.buildQuery(ctx, req)
	if err != nil {
		return nil, err
	}

	// Friends boards are viewer-specific and too fragmented to be worth
	// cache slots.
	cacheable := s.cache != nil && q.Scope != leaderboard.ScopeFriends
	key := s.cacheKey(q)

	if cacheable {
		var cached Page
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	entries, total, err := s.boards.Rank(ctx, *q)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Scope:   q.Scope,
		Period:  q.Period,
		Entries: entries,
		Total:   total,
		PageNum: q.Page,
		Limit:   q.Limit,
	}

	if cacheable {
		if err := s.cache.SetJSON(ctx, key, page, s.cacheTTL); err != nil {
			s.logger.Debug("leaderboard cache write failed", slog.Any("error", err))
		}
	}

	return page, nil
}

// Standing returns the viewer's own rank in the requested board.
func (s *LeaderboardService) Standing(ctx context.Context, req Request) (*leaderboard.Standing, error) {
	if req.ViewerID == "" {
		return nil, shared.NewDomainError("leaderboard", "Standing", shared.ErrInvalidInput, "viewer is required")
	}

	q, err := s.buildQuery(ctx, req)
	if err != nil {
		return nil, err
	}

	return s.boards.StandingFor(ctx, *q, req.ViewerID)
}

// Warm precomputes the first page of the hot boards into the cache. Runs
// from the scheduler; a nil cache makes it a no-op.
func (s *LeaderboardService) Warm(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}

	for _, period := range []string{"day", "week", "all"} {
		_, err := s.Get(ctx, Request{Scope: leaderboard.ScopeGlobal, Period: period, Page: 1, Limit: 25})
		if err != nil {
			return fmt.Errorf("warm global %s: %w", period, err)
		}
	}

	return nil
}

func (s *LeaderboardService) buildQuery(ctx context.Context, req Request) (*leaderboard.Query, error) {
	period, err := leaderboard.ParsePeriod(req.Period)
	if err != nil {
		return nil, shared.WrapError("leaderboard", "Get", shared.ErrInvalidInput, "invalid period", err)
	}

	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	q := &leaderboard.Query{
		Scope:       req.Scope,
		Period:      period,
		WindowStart: s.windowStart(period),
		Page:        page,
		Limit:       limit,
	}

	switch req.Scope {
	case leaderboard.ScopeGlobal:

	case leaderboard.ScopeUniversity:
		if req.UniversityID == "" {
			return nil, shared.NewDomainError("leaderboard", "Get", shared.ErrInvalidInput, "university id is required")
		}
		q.UniversityID = req.UniversityID

	case leaderboard.ScopeFriends:
		if req.ViewerID == "" {
			return nil, shared.NewDomainError("leaderboard", "Get", shared.ErrInvalidInput, "viewer is required for friends scope")
		}
		friendIDs, err := s.friendships.AcceptedFriendIDs(ctx, req.ViewerID)
		if err != nil {
			return nil, err
		}
		q.ViewerID = req.ViewerID
		q.FriendIDs = friendIDs

	case leaderboard.ScopeSubject:
		if req.Subject == "" {
			return nil, shared.NewDomainError("leaderboard", "Get", shared.ErrInvalidInput, "subject is required")
		}
		q.Subject = req.Subject

	default:
		return nil, shared.WrapError("leaderboard", "Get", shared.ErrInvalidInput, "invalid scope", leaderboard.ErrUnknownScope)
	}

	return q, nil
}

// windowStart maps a period onto its inclusive lower bound. The zero time
// means all-time.
func (s *LeaderboardService) windowStart(period leaderboard.Period) time.Time {
	now := s.now()
	switch period {
	case leaderboard.PeriodDay:
		return timeutil.StartOfDay(now)
	case leaderboard.PeriodWeek:
		return timeutil.RollingWeek(now)
	case leaderboard.PeriodMonth:
		return timeutil.StartOfMonth(now)
	}
	return time.Time{}
}

func (s *LeaderboardService) cacheKey(q *leaderboard.Query) string {
	return fmt.Sprintf("leaderboard:%s:%s:%s:%s:%d:%d",
		q.Scope, q.Period, q.UniversityID, q.Subject, q.Page, q.Limit)
}
