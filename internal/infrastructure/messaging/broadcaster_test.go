package messaging

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusarena/focusarena/internal/domain/shared"
)

func testBroadcaster() *Broadcaster {
	return NewBroadcaster(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func recv(t *testing.T, ch <-chan shared.Event) shared.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return shared.Event{}
	}
}

func TestPublishToSubscriber(t *testing.T) {
	b := testBroadcaster()
	defer b.Close()

	ch, cancel := b.Subscribe(shared.UserChannel("u1"))
	defer cancel()

	b.Publish(shared.NewEvent(shared.EventSessionStarted, shared.UserChannel("u1"), map[string]any{"sessionId": "s1"}))

	e := recv(t, ch)
	assert.Equal(t, shared.EventSessionStarted, e.Type)
	assert.Equal(t, "s1", e.Payload["sessionId"])
}

func TestPublishOnlyToMatchingChannel(t *testing.T) {
	b := testBroadcaster()
	defer b.Close()

	ch1, cancel1 := b.Subscribe(shared.UserChannel("u1"))
	defer cancel1()
	ch2, cancel2 := b.Subscribe(shared.UserChannel("u2"))
	defer cancel2()

	b.Publish(shared.NewEvent(shared.EventLevelUp, shared.UserChannel("u1"), nil))

	recv(t, ch1)
	select {
	case e := <-ch2:
		t.Fatalf("unexpected event on other channel: %v", e.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeMultipleChannels(t *testing.T) {
	// One connection listening on its user channel and a campus channel.
	b := testBroadcaster()
	defer b.Close()

	ch, cancel := b.Subscribe(shared.UserChannel("u1"), shared.CampusChannel("uni1"))
	defer cancel()

	b.Publish(shared.NewEvent(shared.EventSessionCompleted, shared.UserChannel("u1"), nil))
	b.Publish(shared.NewEvent(shared.EventCampusActivity, shared.CampusChannel("uni1"), nil))

	types := map[shared.EventType]bool{}
	types[recv(t, ch).Type] = true
	types[recv(t, ch).Type] = true

	assert.True(t, types[shared.EventSessionCompleted])
	assert.True(t, types[shared.EventCampusActivity])
}

func TestPerSubscriberOrdering(t *testing.T) {
	// Events from one publisher arrive in publish order.
	b := testBroadcaster()
	defer b.Close()

	ch, cancel := b.Subscribe(shared.UserChannel("u1"))
	defer cancel()

	b.Publish(shared.NewEvent(shared.EventSessionStarted, shared.UserChannel("u1"), map[string]any{"seq": 1}))
	b.Publish(shared.NewEvent(shared.EventSessionCompleted, shared.UserChannel("u1"), map[string]any{"seq": 2}))

	assert.Equal(t, shared.EventSessionStarted, recv(t, ch).Type)
	assert.Equal(t, shared.EventSessionCompleted, recv(t, ch).Type)
}

func TestSlowSubscriberDropsNotBlocks(t *testing.T) {
	b := testBroadcaster()
	defer b.Close()

	ch, cancel := b.Subscribe(shared.UserChannel("u1"))
	defer cancel()

	// Publish past the buffer without draining; Publish must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			b.Publish(shared.NewEvent(shared.EventSessionStarted, shared.UserChannel("u1"), nil))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The buffer holds at most subscriberBuffer events; the rest dropped.
	assert.Len(t, ch, subscriberBuffer)
}

func TestCancelRemovesSubscription(t *testing.T) {
	b := testBroadcaster()
	defer b.Close()

	ch, cancel := b.Subscribe(shared.UserChannel("u1"))
	require.Equal(t, 1, b.SubscriberCount(shared.UserChannel("u1")))

	cancel()
	assert.Equal(t, 0, b.SubscriberCount(shared.UserChannel("u1")))

	// The channel is closed after cancel.
	_, open := <-ch
	assert.False(t, open)

	// Cancel is idempotent.
	cancel()
}

func TestCloseShutsDownSubscribers(t *testing.T) {
	b := testBroadcaster()

	ch, cancel := b.Subscribe(shared.UserChannel("u1"))
	defer cancel()

	b.Close()

	_, open := <-ch
	assert.False(t, open)

	// Publishing after close is a no-op.
	b.Publish(shared.NewEvent(shared.EventLevelUp, shared.UserChannel("u1"), nil))
}
