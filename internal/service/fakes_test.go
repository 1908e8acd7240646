package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/focusarena/focusarena/internal/domain/achievement"
	"github.com/focusarena/focusarena/internal/domain/campus"
	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// In-memory repository fakes. The session fake mirrors the storage-layer
// concurrency contract: settlement is a compare-and-swap on the open
// state, so concurrent settlements resolve to one winner.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newFakeUserRepo(users ...*user.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		r.users[u.ID] = u.Clone()
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return shared.ErrUserAlreadyExists
		}
	}
	r.users[u.ID] = u.Clone()
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return u.Clone(), nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, shared.ErrUserNotFound
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.users[u.ID]
	if !ok {
		return shared.ErrUserNotFound
	}
	stored.Name = u.Name
	stored.AvatarURL = u.AvatarURL
	stored.UniversityID = u.UniversityID
	stored.Preferences = u.Preferences
	return nil
}

func (r *fakeUserRepo) AwardXP(_ context.Context, userID string, delta int) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	u.XP += delta
	u.Level = user.LevelForXP(u.XP)
	return u.Clone(), nil
}

func (r *fakeUserRepo) Search(_ context.Context, viewerID, query string, limit int) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*user.User
	q := strings.ToLower(query)
	for _, u := range r.users {
		if u.ID == viewerID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, u.Clone())
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*session.StudySession
	users    *fakeUserRepo
}

func newFakeSessionRepo(users *fakeUserRepo) *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*session.StudySession), users: users}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *session.StudySession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.sessions {
		if existing.UserID == s.UserID && existing.IsActive() {
			return shared.ErrActiveSessionExists
		}
	}
	clone := *s
	r.sessions[s.ID] = &clone
	return nil
}

func (r *fakeSessionRepo) GetByID(_ context.Context, id string) (*session.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSessionRepo) ActiveForUser(_ context.Context, userID string) (*session.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.UserID == userID && s.IsActive() {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeSessionRepo) Settle(_ context.Context, p session.SettleParams) (*session.StudySession, *user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[p.SessionID]
	if !ok || s.UserID != p.UserID || !s.IsActive() {
		return nil, nil, shared.ErrSessionNotFound
	}

	end := p.EndTime
	s.EndTime = &end
	s.Duration = p.ActualDuration
	s.Completed = p.Completed
	s.XPEarned = p.XPEarned

	r.users.mu.Lock()
	u, ok := r.users.users[p.UserID]
	if !ok {
		r.users.mu.Unlock()
		return nil, nil, shared.ErrUserNotFound
	}
	u.XP += p.XPEarned
	u.Level = user.LevelForXP(u.XP)
	u.StreakCount += p.StreakDelta
	u.TotalStudyHours += p.HoursDelta
	updatedUser := u.Clone()
	r.users.mu.Unlock()

	clone := *s
	return &clone, updatedUser, nil
}

func (r *fakeSessionRepo) ListForUser(_ context.Context, userID string, f session.HistoryFilter) ([]*session.StudySession, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*session.StudySession
	for _, s := range r.sessions {
		if s.UserID != userID {
			continue
		}
		if f.Completed != nil && s.Completed != *f.Completed {
			continue
		}
		if f.Subject != "" && s.Subject != f.Subject {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *fakeSessionRepo) CompletedSince(_ context.Context, userID string, since time.Time) ([]*session.StudySession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*session.StudySession
	for _, s := range r.sessions {
		if s.UserID == userID && s.Completed && !s.StartTime.Before(since) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CountCompleted(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sessions {
		if s.UserID == userID && s.Completed {
			n++
		}
	}
	return n, nil
}

type fakeAchievementRepo struct {
	mu       sync.Mutex
	catalog  []*achievement.Achievement
	unlocked map[string]map[string]time.Time // userID -> achievementID -> at
}

func newFakeAchievementRepo(catalog ...*achievement.Achievement) *fakeAchievementRepo {
	return &fakeAchievementRepo{
		catalog:  catalog,
		unlocked: make(map[string]map[string]time.Time),
	}
}

func (r *fakeAchievementRepo) Create(_ context.Context, a *achievement.Achievement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.catalog {
		if existing.Name == a.Name {
			return shared.ErrAchievementExists
		}
	}
	r.catalog = append(r.catalog, a)
	return nil
}

func (r *fakeAchievementRepo) GetByID(_ context.Context, id string) (*achievement.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.catalog {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, shared.ErrAchievementNotFound
}

func (r *fakeAchievementRepo) ListAll(_ context.Context) ([]*achievement.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*achievement.Achievement(nil), r.catalog...), nil
}

func (r *fakeAchievementRepo) ListUnlocked(_ context.Context, userID string) ([]*achievement.Unlocked, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*achievement.Unlocked
	for _, a := range r.catalog {
		if at, ok := r.unlocked[userID][a.ID]; ok {
			out = append(out, &achievement.Unlocked{Achievement: a, UnlockedAt: at})
		}
	}
	return out, nil
}

func (r *fakeAchievementRepo) UnlockedIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]struct{})
	for id := range r.unlocked[userID] {
		out[id] = struct{}{}
	}
	return out, nil
}

func (r *fakeAchievementRepo) Unlock(_ context.Context, userID, achievementID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.unlocked[userID] == nil {
		r.unlocked[userID] = make(map[string]time.Time)
	}
	if _, ok := r.unlocked[userID][achievementID]; ok {
		return false, nil
	}
	r.unlocked[userID][achievementID] = at
	return true, nil
}

type fakeFriendshipRepo struct {
	mu    sync.Mutex
	edges map[string]*friendship.Friendship
	users *fakeUserRepo
}

func newFakeFriendshipRepo(users *fakeUserRepo) *fakeFriendshipRepo {
	return &fakeFriendshipRepo{edges: make(map[string]*friendship.Friendship), users: users}
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (r *fakeFriendshipRepo) Create(_ context.Context, f *friendship.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.edges {
		if pairKey(e.RequesterID, e.AddresseeID) == pairKey(f.RequesterID, f.AddresseeID) {
			return shared.ErrRequestAlreadySent
		}
	}
	clone := *f
	r.edges[f.ID] = &clone
	return nil
}

func (r *fakeFriendshipRepo) GetByID(_ context.Context, id string) (*friendship.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.edges[id]
	if !ok {
		return nil, shared.ErrFriendshipNotFound
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFriendshipRepo) FindBetween(_ context.Context, a, b string) (*friendship.Friendship, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.edges {
		if pairKey(f.RequesterID, f.AddresseeID) == pairKey(a, b) {
			clone := *f
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeFriendshipRepo) UpdateStatus(_ context.Context, f *friendship.Friendship) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.edges[f.ID]
	if !ok {
		return shared.ErrFriendshipNotFound
	}
	stored.Status = f.Status
	stored.UpdatedAt = f.UpdatedAt
	return nil
}

func (r *fakeFriendshipRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.edges, id)
	return nil
}

func (r *fakeFriendshipRepo) ListFriends(ctx context.Context, userID string) ([]*friendship.FriendEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*friendship.FriendEntry
	for _, f := range r.edges {
		if f.Status != friendship.StatusAccepted || !f.Involves(userID) {
			continue
		}
		friend, _ := r.users.GetByID(ctx, f.OtherSide(userID))
		clone := *f
		out = append(out, &friendship.FriendEntry{Friendship: &clone, Friend: friend})
	}
	return out, nil
}

func (r *fakeFriendshipRepo) ListIncoming(ctx context.Context, userID string) ([]*friendship.RequestEntry, error) {
	return r.listPending(ctx, userID, true)
}

func (r *fakeFriendshipRepo) ListOutgoing(ctx context.Context, userID string) ([]*friendship.RequestEntry, error) {
	return r.listPending(ctx, userID, false)
}

func (r *fakeFriendshipRepo) listPending(ctx context.Context, userID string, incoming bool) ([]*friendship.RequestEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*friendship.RequestEntry
	for _, f := range r.edges {
		if f.Status != friendship.StatusPending {
			continue
		}
		if incoming && f.AddresseeID != userID {
			continue
		}
		if !incoming && f.RequesterID != userID {
			continue
		}
		counterpart, _ := r.users.GetByID(ctx, f.OtherSide(userID))
		clone := *f
		out = append(out, &friendship.RequestEntry{Friendship: &clone, Counterpart: counterpart})
	}
	return out, nil
}

func (r *fakeFriendshipRepo) AcceptedFriendIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, f := range r.edges {
		if f.Status == friendship.StatusAccepted && f.Involves(userID) {
			out = append(out, f.OtherSide(userID))
		}
	}
	return out, nil
}

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*user.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{tokens: make(map[string]*user.RefreshToken)}
}

func (r *fakeTokenRepo) Save(_ context.Context, t *user.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *t
	r.tokens[t.Token] = &clone
	return nil
}

func (r *fakeTokenRepo) FindByToken(_ context.Context, token string) (*user.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[token]
	if !ok {
		return nil, shared.ErrRefreshTokenInvalid
	}
	clone := *t
	return &clone, nil
}

func (r *fakeTokenRepo) DeleteByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) DeleteForUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, t := range r.tokens {
		if t.UserID == userID {
			delete(r.tokens, k)
		}
	}
	return nil
}

func (r *fakeTokenRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.tokens {
		if t.Expired(now) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

// recordingBroadcaster captures published events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *recordingBroadcaster) Publish(e shared.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBroadcaster) byType(t shared.EventType) []shared.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []shared.Event
	for _, e := range b.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeCampusRepo struct {
	mu           sync.Mutex
	universities map[string]*campus.University
}

func newFakeCampusRepo(universities ...*campus.University) *fakeCampusRepo {
	r := &fakeCampusRepo{universities: make(map[string]*campus.University)}
	for _, u := range universities {
		r.universities[u.ID] = u
	}
	return r
}

func (r *fakeCampusRepo) ListUniversities(_ context.Context, f campus.ListFilter) ([]*campus.University, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*campus.University
	q := strings.ToLower(f.Query)
	for _, u := range r.universities {
		if q != "" && !strings.Contains(strings.ToLower(u.Name), q) {
			continue
		}
		if f.Country != "" && u.Country != f.Country {
			continue
		}
		matched = append(matched, u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	start := f.Offset()
	if start >= len(matched) {
		return nil, nil
	}
	end := start + f.Limit
	if f.Limit <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (r *fakeCampusRepo) GetUniversity(_ context.Context, id string) (*campus.University, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.universities[id]
	if !ok {
		return nil, shared.ErrUniversityNotFound
	}
	return u, nil
}

func (r *fakeCampusRepo) CreateUniversity(_ context.Context, u *campus.University) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.universities[u.ID] = u
	return nil
}

func (r *fakeCampusRepo) CreateCampus(_ context.Context, c *campus.Campus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.universities[c.UniversityID]
	if !ok {
		return shared.ErrUniversityNotFound
	}
	u.Campuses = append(u.Campuses, c)
	return nil
}
