// Package messaging implements the notification fan-out: an in-process
// broadcaster that delivers events to channel subscribers, and an optional
// Redis bridge that extends the same channel semantics across instances.
// Delivery is at-most-once to currently connected subscribers; events are
// never persisted or replayed.
package messaging

import (
	"log/slog"
	"sync"

	"github.com/focusarena/focusarena/internal/domain/shared"
)

// subscriberBuffer is the per-subscriber queue depth. A subscriber that
// falls this far behind starts losing events rather than blocking the
// publisher.
const subscriberBuffer = 32

// Broadcaster is the in-process fan-out hub. Publish never blocks: each
// subscriber has a bounded queue and slow subscribers drop events.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[string]map[int]chan shared.Event
	nextID int
	closed bool
	logger *slog.Logger
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[string]map[int]chan shared.Event),
		logger: logger,
	}
}

// Publish delivers the event to every subscriber of its channel. Events
// published by one goroutine are enqueued per subscriber in publish
// order; there is no ordering across publishers.
func (b *Broadcaster) Publish(event shared.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs[event.Channel] {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop rather than block the publisher.
			b.logger.Debug("dropping event for slow subscriber",
				slog.String("channel", event.Channel),
				slog.String("type", string(event.Type)))
		}
	}
}

// Subscribe registers a subscriber on a set of channels. The returned
// channel receives events from all of them; the cancel function removes
// the subscription and closes the channel.
func (b *Broadcaster) Subscribe(channels ...string) (<-chan shared.Event, func()) {
	ch := make(chan shared.Event, subscriberBuffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	for _, channel := range channels {
		if b.subs[channel] == nil {
			b.subs[channel] = make(map[int]chan shared.Event)
		}
		b.subs[channel][id] = ch
	}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			for _, channel := range channels {
				delete(b.subs[channel], id)
				if len(b.subs[channel]) == 0 {
					delete(b.subs, channel)
				}
			}
			closed := b.closed
			b.mu.Unlock()
			if !closed {
				close(ch)
			}
		})
	}

	return ch, cancel
}

// SubscriberCount returns the number of subscribers on a channel.
func (b *Broadcaster) SubscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

// Close shuts the hub down and closes every subscriber channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	seen := make(map[chan shared.Event]struct{})
	for _, channelSubs := range b.subs {
		for _, ch := range channelSubs {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
			close(ch)
		}
	}
	b.subs = make(map[string]map[int]chan shared.Event)
}
