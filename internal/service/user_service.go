package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/focusarena/focusarena/internal/domain/campus"
	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/session"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// UserService handles profile reads and updates.
type UserService struct {
	users       user.Repository
	sessions    session.Repository
	campuses    campus.Repository
	friendships friendship.Repository
	logger      *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(users user.Repository, sessions session.Repository, campuses campus.Repository, friendships friendship.Repository, logger *slog.Logger) *UserService {
	return &UserService{users: users, sessions: sessions, campuses: campuses, friendships: friendships, logger: logger}
}

// Profile is a user with derived stats attached.
type Profile struct {
	User              *user.User
	CompletedSessions int
	University        *campus.University
}

// Get returns a user's profile.
func (s *UserService) Get(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	completed, err := s.sessions.CountCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}

	p := &Profile{User: u, CompletedSessions: completed}

	if u.HasUniversity() {
		uni, err := s.campuses.GetUniversity(ctx, *u.UniversityID)
		if err == nil {
			p.University = uni
		} else if !shared.IsNotFound(err) {
			return nil, err
		}
	}

	return p, nil
}

// UpdateProfileInput carries the editable profile fields. Nil pointers
// leave the field untouched.
type UpdateProfileInput struct {
	Name        *string
	AvatarURL   *string
	Preferences map[string]any
}

// UpdateProfile applies a partial profile update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) < 2 || len(name) > 100 {
			return nil, shared.NewDomainError("user", "Update", shared.ErrInvalidInput, "name must be 2-100 chars")
		}
		u.Name = name
	}
	if in.AvatarURL != nil {
		u.AvatarURL = *in.AvatarURL
	}
	if in.Preferences != nil {
		u.Preferences = in.Preferences
	}

	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// JoinUniversity sets the user's campus affiliation after verifying the
// university exists.
func (s *UserService) JoinUniversity(ctx context.Context, userID, universityID string) (*user.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, err := s.campuses.GetUniversity(ctx, universityID); err != nil {
		return nil, err
	}

	u.JoinUniversity(universityID)
	if err := s.users.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user joined university",
		slog.String("user_id", userID),
		slog.String("university_id", universityID))

	return u, nil
}

// Friendship status values surfaced on search results, relative to the
// viewer.
const (
	FriendStatusNone            = "none"
	FriendStatusFriends         = "friends"
	FriendStatusPendingSent     = "pending_sent"
	FriendStatusPendingReceived = "pending_received"
	FriendStatusBlocked         = "blocked"
)

// SearchResult is a matched user annotated with the viewer's friendship
// status toward them.
type SearchResult struct {
	User             *user.User
	FriendshipStatus string
}

// Search finds users by name or email fragment, excluding the viewer.
// Each hit carries the friendship status between viewer and hit.
func (s *UserService) Search(ctx context.Context, viewerID, query string, limit int) ([]*SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, shared.NewDomainError("user", "Search", shared.ErrInvalidInput, "query must be at least 2 chars")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	found, err := s.users.Search(ctx, viewerID, query, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*SearchResult, 0, len(found))
	for _, u := range found {
		res := &SearchResult{User: u, FriendshipStatus: FriendStatusNone}

		edge, err := s.friendships.FindBetween(ctx, viewerID, u.ID)
		if err != nil {
			return nil, err
		}
		if edge != nil {
			switch edge.Status {
			case friendship.StatusAccepted:
				res.FriendshipStatus = FriendStatusFriends
			case friendship.StatusBlocked:
				res.FriendshipStatus = FriendStatusBlocked
			case friendship.StatusPending:
				if edge.RequesterID == viewerID {
					res.FriendshipStatus = FriendStatusPendingSent
				} else {
					res.FriendshipStatus = FriendStatusPendingReceived
				}
			}
		}

		out = append(out, res)
	}

	return out, nil
}
