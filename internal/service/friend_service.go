package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

// FriendService manages the friendship graph: requests, responses,
// removal, and the friend/request listings.
type FriendService struct {
	friendships friendship.Repository
	users       user.Repository
	broadcaster shared.Broadcaster
	logger      *slog.Logger

	now func() time.Time
}

// NewFriendService creates a FriendService.
func NewFriendService(
	friendships friendship.Repository,
	users user.Repository,
	broadcaster shared.Broadcaster,
	logger *slog.Logger,
) *FriendService {
	if broadcaster == nil {
		broadcaster = shared.NopBroadcaster{}
	}

	return &FriendService{
		friendships: friendships,
		users:       users,
		broadcaster: broadcaster,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SendRequest creates a pending friendship from requester to addressee.
// At most one edge exists per user pair; the error distinguishes whether
// the existing edge is an accepted friendship, an outgoing request, an
// incoming request, or a block.
func (s *FriendService) SendRequest(ctx context.Context, requesterID, addresseeID string) (*friendship.Friendship, error) {
	if requesterID == addresseeID {
		return nil, shared.ErrSelfFriendship
	}

	requester, err := s.users.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, addresseeID); err != nil {
		return nil, err
	}

	existing, err := s.friendships.FindBetween(ctx, requesterID, addresseeID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case friendship.StatusAccepted:
			return nil, shared.ErrAlreadyFriends
		case friendship.StatusBlocked:
			return nil, shared.ErrUserBlocked
		default:
			if existing.RequesterID == requesterID {
				return nil, shared.ErrRequestAlreadySent
			}
			return nil, shared.ErrRequestAlreadyInbox
		}
	}

	f, err := friendship.NewRequest(uuid.NewString(), requesterID, addresseeID, s.now())
	if err != nil {
		return nil, shared.WrapError("friendship", "Request", shared.ErrInvalidInput, "invalid request", err)
	}

	if err := s.friendships.Create(ctx, f); err != nil {
		return nil, err
	}

	s.broadcaster.Publish(shared.NewEvent(shared.EventFriendRequestReceived, shared.UserChannel(addresseeID), map[string]any{
		"friendshipId":  f.ID,
		"requesterId":   requesterID,
		"requesterName": requester.Name,
	}))

	s.logger.Info("friend request sent",
		slog.String("requester_id", requesterID),
		slog.String("addressee_id", addresseeID))

	return f, nil
}

// SendRequestByEmail resolves the addressee by email and sends a request.
func (s *FriendService) SendRequestByEmail(ctx context.Context, requesterID, email string) (*friendship.Friendship, error) {
	addressee, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, err
	}
	return s.SendRequest(ctx, requesterID, addressee.ID)
}

// Block marks the edge to the target blocked, creating one if none
// exists. Blocking is idempotent and emits no event; the target is not
// told they were blocked.
func (s *FriendService) Block(ctx context.Context, userID, targetID string) (*friendship.Friendship, error) {
	if userID == targetID {
		return nil, shared.ErrSelfFriendship
	}
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	existing, err := s.friendships.FindBetween(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Status == friendship.StatusBlocked {
			return existing, nil
		}
		if err := existing.Block(userID, s.now()); err != nil {
			return nil, shared.WrapError("friendship", "Block", shared.ErrStateTransition, "cannot block", err)
		}
		if err := s.friendships.UpdateStatus(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	f, err := friendship.NewRequest(uuid.NewString(), userID, targetID, s.now())
	if err != nil {
		return nil, shared.WrapError("friendship", "Block", shared.ErrInvalidInput, "invalid block", err)
	}
	if err := f.Block(userID, s.now()); err != nil {
		return nil, shared.WrapError("friendship", "Block", shared.ErrStateTransition, "cannot block", err)
	}
	if err := s.friendships.Create(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Info("user blocked",
		slog.String("user_id", userID),
		slog.String("blocked_id", targetID))

	return f, nil
}

// Accept transitions a pending request to an accepted friendship. Only
// the addressee may accept; anyone else sees not-found.
func (s *FriendService) Accept(ctx context.Context, userID, friendshipID string) (*friendship.Friendship, error) {
	f, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return nil, err
	}
	if !f.CanRespond(userID) {
		return nil, shared.ErrFriendshipNotFound
	}

	if err := f.Accept(userID, s.now()); err != nil {
		return nil, shared.WrapError("friendship", "Accept", shared.ErrStateTransition, "cannot accept", err)
	}
	if err := s.friendships.UpdateStatus(ctx, f); err != nil {
		return nil, err
	}

	accepter, err := s.users.GetByID(ctx, userID)
	if err == nil {
		s.broadcaster.Publish(shared.NewEvent(shared.EventFriendRequestAccepted, shared.UserChannel(f.RequesterID), map[string]any{
			"friendshipId": f.ID,
			"friendId":     userID,
			"friendName":   accepter.Name,
		}))
	}

	return f, nil
}

// Reject removes a pending request. Only the addressee may reject.
func (s *FriendService) Reject(ctx context.Context, userID, friendshipID string) error {
	f, err := s.friendships.GetByID(ctx, friendshipID)
	if err != nil {
		return err
	}
	if !f.CanRespond(userID) {
		return shared.ErrFriendshipNotFound
	}

	if err := s.friendships.Delete(ctx, f.ID); err != nil {
		return err
	}

	s.broadcaster.Publish(shared.NewEvent(shared.EventFriendRequestRejected, shared.UserChannel(f.RequesterID), map[string]any{
		"friendshipId": f.ID,
	}))

	return nil
}

// Remove deletes an accepted friendship. Either side may remove.
func (s *FriendService) Remove(ctx context.Context, userID, friendID string) error {
	f, err := s.friendships.FindBetween(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if f == nil || f.Status != friendship.StatusAccepted {
		return shared.ErrFriendshipNotFound
	}

	if err := s.friendships.Delete(ctx, f.ID); err != nil {
		return err
	}

	s.broadcaster.Publish(shared.NewEvent(shared.EventFriendRemoved, shared.UserChannel(f.OtherSide(userID)), map[string]any{
		"friendshipId": f.ID,
		"removedBy":    userID,
	}))

	return nil
}

// Friends returns the user's accepted friends with profiles.
func (s *FriendService) Friends(ctx context.Context, userID string) ([]*friendship.FriendEntry, error) {
	return s.friendships.ListFriends(ctx, userID)
}

// Requests returns the user's pending inbox and outbox.
func (s *FriendService) Requests(ctx context.Context, userID string) (incoming, outgoing []*friendship.RequestEntry, err error) {
	incoming, err = s.friendships.ListIncoming(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	outgoing, err = s.friendships.ListOutgoing(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return incoming, outgoing, nil
}
