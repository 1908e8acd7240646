package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/leaderboard"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

type fakeBoardRepo struct {
	mu      sync.Mutex
	calls   int
	queries []leaderboard.Query
	entries []*leaderboard.Entry
}

func (r *fakeBoardRepo) Rank(_ context.Context, q leaderboard.Query) ([]*leaderboard.Entry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.queries = append(r.queries, q)
	return r.entries, len(r.entries), nil
}

func (r *fakeBoardRepo) StandingFor(_ context.Context, q leaderboard.Query, userID string) (*leaderboard.Standing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
	for i, e := range r.entries {
		if e.UserID == userID {
			return &leaderboard.Standing{Rank: i + 1, Total: len(r.entries), Entry: e}, nil
		}
	}
	return &leaderboard.Standing{Total: len(r.entries)}, nil
}

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func newLeaderboardFixture(entries ...*leaderboard.Entry) (*LeaderboardService, *fakeBoardRepo, *fakeFriendshipRepo) {
	boards := &fakeBoardRepo{entries: entries}
	users := newFakeUserRepo(
		&user.User{ID: "alice", Email: "alice@test.dev", Name: "Alice", Level: 1},
		&user.User{ID: "bob", Email: "bob@test.dev", Name: "Bob", Level: 1},
	)
	friendships := newFakeFriendshipRepo(users)
	svc := NewLeaderboardService(boards, friendships, newMemoryCache(), time.Minute, discardLogger())
	return svc, boards, friendships
}

func TestLeaderboardGlobal(t *testing.T) {
	svc, boards, _ := newLeaderboardFixture(
		&leaderboard.Entry{Rank: 1, UserID: "alice", XP: 500},
		&leaderboard.Entry{Rank: 2, UserID: "bob", XP: 300},
	)

	page, err := svc.Get(context.Background(), Request{Scope: leaderboard.ScopeGlobal, Period: "all"})
	require.NoError(t, err)

	assert.Equal(t, 2, page.Total)
	assert.Equal(t, leaderboard.PeriodAll, page.Period)
	require.Len(t, boards.queries, 1)
	assert.True(t, boards.queries[0].WindowStart.IsZero())
}

func TestLeaderboardCacheHit(t *testing.T) {
	svc, boards, _ := newLeaderboardFixture(&leaderboard.Entry{Rank: 1, UserID: "alice", XP: 500})
	ctx := context.Background()
	req := Request{Scope: leaderboard.ScopeGlobal, Period: "day"}

	_, err := svc.Get(ctx, req)
	require.NoError(t, err)
	page, err := svc.Get(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, 1, boards.calls)
	assert.Equal(t, 1, page.Total)
}

func TestLeaderboardPeriodWindows(t *testing.T) {
	svc, boards, _ := newLeaderboardFixture()
	now := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	svc.cache = nil
	ctx := context.Background()

	for _, period := range []string{"day", "week", "month"} {
		_, err := svc.Get(ctx, Request{Scope: leaderboard.ScopeGlobal, Period: period})
		require.NoError(t, err)
	}

	require.Len(t, boards.queries, 3)
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), boards.queries[0].WindowStart)
	assert.Equal(t, now.Add(-7*24*time.Hour), boards.queries[1].WindowStart)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), boards.queries[2].WindowStart)
}

func TestLeaderboardInvalidPeriod(t *testing.T) {
	svc, _, _ := newLeaderboardFixture()

	_, err := svc.Get(context.Background(), Request{Scope: leaderboard.ScopeGlobal, Period: "year"})
	assert.True(t, shared.IsValidation(err))
}

func TestLeaderboardFriendsScope(t *testing.T) {
	svc, boards, friendships := newLeaderboardFixture()
	ctx := context.Background()

	f, err := friendship.NewRequest("f1", "alice", "bob", time.Now().UTC())
	require.NoError(t, err)
	f.Status = friendship.StatusAccepted
	require.NoError(t, friendships.Create(ctx, f))

	_, err = svc.Get(ctx, Request{Scope: leaderboard.ScopeFriends, Period: "all", ViewerID: "alice"})
	require.NoError(t, err)

	require.Len(t, boards.queries, 1)
	assert.Equal(t, "alice", boards.queries[0].ViewerID)
	assert.Equal(t, []string{"bob"}, boards.queries[0].FriendIDs)

	// Viewer is mandatory for the friends scope.
	_, err = svc.Get(ctx, Request{Scope: leaderboard.ScopeFriends, Period: "all"})
	assert.True(t, shared.IsValidation(err))
}

func TestLeaderboardScopeValidation(t *testing.T) {
	svc, _, _ := newLeaderboardFixture()
	ctx := context.Background()

	_, err := svc.Get(ctx, Request{Scope: leaderboard.ScopeUniversity, Period: "all"})
	assert.True(t, shared.IsValidation(err))

	_, err = svc.Get(ctx, Request{Scope: leaderboard.ScopeSubject, Period: "all"})
	assert.True(t, shared.IsValidation(err))

	_, err = svc.Get(ctx, Request{Scope: "galaxy", Period: "all"})
	assert.True(t, shared.IsValidation(err))
}

func TestLeaderboardStanding(t *testing.T) {
	svc, _, _ := newLeaderboardFixture(
		&leaderboard.Entry{Rank: 1, UserID: "alice", XP: 500},
		&leaderboard.Entry{Rank: 2, UserID: "bob", XP: 300},
	)

	standing, err := svc.Standing(context.Background(), Request{
		Scope: leaderboard.ScopeGlobal, Period: "all", ViewerID: "bob",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, standing.Rank)
	assert.Equal(t, 2, standing.Total)
}

func TestLeaderboardWarm(t *testing.T) {
	svc, boards, _ := newLeaderboardFixture(&leaderboard.Entry{Rank: 1, UserID: "alice", XP: 500})
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx))
	assert.Equal(t, 3, boards.calls)

	// Warmed pages are served from cache.
	_, err := svc.Get(ctx, Request{Scope: leaderboard.ScopeGlobal, Period: "day", Page: 1, Limit: 25})
	require.NoError(t, err)
	assert.Equal(t, 3, boards.calls)
}
