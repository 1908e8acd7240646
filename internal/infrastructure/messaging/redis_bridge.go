package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/focusarena/focusarena/internal/domain/shared"
)

// redisTopic is the single Redis pub/sub topic carrying every event. The
// FocusArena channel name travels inside the envelope.
const redisTopic = "focusarena:events"

// envelope is the wire format on the Redis topic. InstanceID lets each
// instance skip the events it published itself.
type envelope struct {
	InstanceID string       `json:"instance_id"`
	Event      shared.Event `json:"event"`
}

// RedisBridge extends a local Broadcaster across instances via Redis
// pub/sub, preserving the at-most-once, no-cross-user-ordering contract.
// Publish failures are logged and dropped; local delivery always happens.
type RedisBridge struct {
	local      *Broadcaster
	client     *redis.Client
	instanceID string
	logger     *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisBridge wraps the local broadcaster and starts the subscriber
// loop. Call Close to stop it.
func NewRedisBridge(ctx context.Context, local *Broadcaster, client *redis.Client, logger *slog.Logger) *RedisBridge {
	runCtx, cancel := context.WithCancel(ctx)

	b := &RedisBridge{
		local:      local,
		client:     client,
		instanceID: uuid.NewString(),
		logger:     logger,
		cancel:     cancel,
	}

	b.wg.Add(1)
	go b.subscribeLoop(runCtx)

	return b
}

// Publish delivers locally, then mirrors the event to the Redis topic for
// the other instances.
func (b *RedisBridge) Publish(event shared.Event) {
	b.local.Publish(event)

	payload, err := json.Marshal(envelope{InstanceID: b.instanceID, Event: event})
	if err != nil {
		b.logger.Warn("failed to marshal event for redis", slog.Any("error", err))
		return
	}

	if err := b.client.Publish(context.Background(), redisTopic, payload).Err(); err != nil {
		b.logger.Warn("failed to publish event to redis",
			slog.String("type", string(event.Type)), slog.Any("error", err))
	}
}

// subscribeLoop republishes remote events into the local hub. go-redis
// reconnects the pub/sub connection internally; the loop ends when the
// context is cancelled.
func (b *RedisBridge) subscribeLoop(ctx context.Context) {
	defer b.wg.Done()

	pubsub := b.client.Subscribe(ctx, redisTopic)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("dropping malformed event from redis", slog.Any("error", err))
				continue
			}
			if env.InstanceID == b.instanceID {
				// Own echo: already delivered locally.
				continue
			}

			b.local.Publish(env.Event)
		}
	}
}

// Close stops the subscriber loop. The local broadcaster is not closed;
// its lifecycle belongs to the caller.
func (b *RedisBridge) Close() {
	b.cancel()
	b.wg.Wait()
}
