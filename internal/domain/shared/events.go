// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"fmt"
	"time"
)

// EventType represents the type of real-time event pushed to clients.
type EventType string

// Event catalog. Names mirror the wire protocol the frontend listens on.
const (
	// Session events
	EventSessionStarted   EventType = "session:started"
	EventSessionCompleted EventType = "session:completed"
	EventCampusActivity   EventType = "campus:activity"

	// Progression events
	EventAchievementUnlocked EventType = "achievement:unlocked"
	EventLevelUp             EventType = "level:up"

	// Friend events
	EventFriendRequestReceived EventType = "friend:request_received"
	EventFriendRequestAccepted EventType = "friend:request_accepted"
	EventFriendRequestRejected EventType = "friend:request_rejected"
	EventFriendRemoved         EventType = "friend:removed"
)

// UserChannel returns the per-user channel name for the given user ID.
func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s", userID)
}

// CampusChannel returns the campus-wide channel name for the given
// university ID.
func CampusChannel(universityID string) string {
	return fmt.Sprintf("campus:%s", universityID)
}

// Event is a single fire-and-forget notification. Delivery is at-most-once
// to currently connected subscribers; there is no persistence or replay.
// Events for one user's session are published in commit order; no ordering
// is guaranteed across users.
type Event struct {
	Type       EventType      `json:"type"`
	Channel    string         `json:"channel"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent creates an event addressed to a channel.
func NewEvent(eventType EventType, channel string, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		Channel:    channel,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Broadcaster publishes events to subscribers. Implementations must never
// block the caller on a slow consumer and must treat publish failures as
// non-fatal: a failed publish does not roll back committed state.
type Broadcaster interface {
	Publish(event Event)
}

// NopBroadcaster discards all events. Useful in tests and for tools that
// run the services without a realtime layer.
type NopBroadcaster struct{}

// Publish implements Broadcaster.
func (NopBroadcaster) Publish(Event) {}
