package friendship

import (
	"context"

	"github.com/focusarena/focusarena/internal/domain/user"
)

// FriendEntry is an accepted edge resolved to the friend's profile, from
// the perspective of one user.
type FriendEntry struct {
	Friendship *Friendship
	Friend     *user.User
}

// RequestEntry is a pending request resolved to the counterpart's profile.
// For the inbox the counterpart is the requester; for the outbox it is the
// addressee.
type RequestEntry struct {
	Friendship  *Friendship
	Counterpart *user.User
}

// Repository defines the persistence operations for the friendship graph.
type Repository interface {
	// Create persists a new edge. The unordered-pair uniqueness is
	// enforced with a unique index on (least(a,b), greatest(a,b));
	// a violation surfaces as shared.ErrRequestAlreadySent.
	Create(ctx context.Context, f *Friendship) error

	// GetByID returns the edge or shared.ErrFriendshipNotFound.
	GetByID(ctx context.Context, id string) (*Friendship, error)

	// FindBetween returns the edge between two users regardless of
	// direction, or (nil, nil) when none exists.
	FindBetween(ctx context.Context, userA, userB string) (*Friendship, error)

	// UpdateStatus persists a status transition.
	UpdateStatus(ctx context.Context, f *Friendship) error

	// Delete removes the edge (reject or unfriend).
	Delete(ctx context.Context, id string) error

	// ListFriends returns the user's accepted friends with profiles.
	ListFriends(ctx context.Context, userID string) ([]*FriendEntry, error)

	// ListIncoming returns pending requests addressed to the user.
	ListIncoming(ctx context.Context, userID string) ([]*RequestEntry, error)

	// ListOutgoing returns pending requests the user has sent.
	ListOutgoing(ctx context.Context, userID string) ([]*RequestEntry, error)

	// AcceptedFriendIDs returns the IDs of the user's accepted friends.
	AcceptedFriendIDs(ctx context.Context, userID string) ([]string, error)
}
