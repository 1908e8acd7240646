package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusarena/focusarena/internal/domain/friendship"
	"github.com/focusarena/focusarena/internal/domain/shared"
	"github.com/focusarena/focusarena/internal/domain/user"
)

type friendFixture struct {
	svc   *FriendService
	users *fakeUserRepo
	bus   *recordingBroadcaster
}

func newFriendFixture(t *testing.T) *friendFixture {
	t.Helper()

	users := newFakeUserRepo(
		&user.User{ID: "alice", Email: "alice@test.dev", Name: "Alice", Level: 1},
		&user.User{ID: "bob", Email: "bob@test.dev", Name: "Bob", Level: 1},
		&user.User{ID: "carol", Email: "carol@test.dev", Name: "Carol", Level: 1},
	)
	bus := &recordingBroadcaster{}
	svc := NewFriendService(newFakeFriendshipRepo(users), users, bus, discardLogger())

	return &friendFixture{svc: svc, users: users, bus: bus}
}

func TestSendRequest(t *testing.T) {
	fx := newFriendFixture(t)

	f, err := fx.svc.SendRequest(context.Background(), "alice", "bob")
	require.NoError(t, err)

	assert.Equal(t, friendship.StatusPending, f.Status)
	assert.Equal(t, "alice", f.RequesterID)

	received := fx.bus.byType(shared.EventFriendRequestReceived)
	require.Len(t, received, 1)
	assert.Equal(t, shared.UserChannel("bob"), received[0].Channel)
}

func TestSendRequestToSelf(t *testing.T) {
	fx := newFriendFixture(t)

	_, err := fx.svc.SendRequest(context.Background(), "alice", "alice")
	assert.True(t, shared.IsValidation(err))
}

func TestSendRequestDuplicate(t *testing.T) {
	fx := newFriendFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// Same direction: already sent.
	_, err = fx.svc.SendRequest(ctx, "alice", "bob")
	assert.ErrorIs(t, err, shared.ErrConflict)

	// Reverse direction: the pair already has an edge.
	_, err = fx.svc.SendRequest(ctx, "bob", "alice")
	assert.ErrorIs(t, err, shared.ErrConflict)
}

func TestAcceptRequest(t *testing.T) {
	fx := newFriendFixture(t)
	ctx := context.Background()

	f, err := fx.svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	accepted, err := fx.svc.Accept(ctx, "bob", f.ID)
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusAccepted, accepted.Status)

	// The requester is notified.
	events := fx.bus.byType(shared.EventFriendRequestAccepted)
	require.Len(t, events, 1)
	assert.Equal(t, shared.UserChannel("alice"), events[0].Channel)

	friends, err := fx.svc.Friends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "Bob", friends[0].Friend.Name)

	// Once accepted, a fresh request is a conflict.
	_, err = fx.svc.SendRequest(ctx, "alice", "bob")
	assert.ErrorIs(t, err, shared.ErrAlreadyFriends)
}

func TestAcceptByRequesterFails(t *testing.T) {
	fx := newFriendFixture(t)
	ctx := context.Background()

	f, err := fx.svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	// Only the addressee can accept; the requester sees not-found.
	_, err = fx.svc.Accept(ctx, "alice", f.ID)
	assert.True(t, shared.IsNotFound(err))
}

func TestRejectRequest(t *testing.T) {
	fx := newFriendFixture(t)
	ctx := context.Background()

	f, err := fx.svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, fx.svc.Reject(ctx, "bob", f.ID))
	assert.Len(t, fx.bus.byType(shared.EventFriendRequestRejected), 1)

	// The edge is gone, so a new request is allowed.
	_, err = fx.svc.SendRequest(ctx, "alice", "bob")
	assert.NoError(t, err)
}

func TestRemoveFriend(t *testing.T) {
	fx := newFriendFixture(t)
	ctx := context.Background()

	f, err := fx.svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = fx.svc.Accept(ctx, "bob", f.ID)
	require.NoError(t, err)

	require.NoError(t, fx.svc.Remove(ctx, "alice", "bob"))

	events := fx.bus.byType(shared.EventFriendRemoved)
	require.Len(t, events, 1)
	assert.Equal(t, shared.UserChannel("bob"), events[0].Channel)

	friends, err := fx.svc.Friends(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, friends)
}

func TestRemoveNonFriend(t *testing.T) {
	fx := newFriendFixture(t)

	err := fx.svc.Remove(context.Background(), "alice", "carol")
	assert.True(t, shared.IsNotFound(err))
}

func TestRequestListings(t *testing.T) {
	fx := newFriendFixture(t)
	ctx := context.Background()

	_, err := fx.svc.SendRequest(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = fx.svc.SendRequest(ctx, "carol", "alice")
	require.NoError(t, err)

	incoming, outgoing, err := fx.svc.Requests(ctx, "alice")
	require.NoError(t, err)

	require.Len(t, incoming, 1)
	assert.Equal(t, "Carol", incoming[0].Counterpart.Name)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "Bob", outgoing[0].Counterpart.Name)
}
