// Package events implements the in-memory fanout registry that pushes
// task and notification events to every open client stream of a user.
package events

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event names pushed over a stream.
const (
	EventTaskUpdate   = "task-update"
	EventNotification = "notification"
)

// Task update actions carried in a task-update payload.
const (
	ActionCreated   = "created"
	ActionStarted   = "started"
	ActionCompleted = "completed"
	ActionApproved  = "approved"
	ActionRejected  = "rejected"
	ActionDeleted   = "deleted"
)

// TaskUpdatePayload is the body of a task-update event.
type TaskUpdatePayload struct {
	TaskID string `json:"taskId"`
	Action string `json:"action"`
}

// NotificationPayload is the body of a notification event.
type NotificationPayload struct {
	TaskID string `json:"taskId"`
}

// Event is a named message with a pre-serialized JSON body.
type Event struct {
	Name string
	Data []byte
}

// streamBuffer bounds how many undelivered events a single stream may
// hold before the oldest is dropped. Delivery is best-effort; a client
// that misses an event recovers on its next full reload.
const streamBuffer = 16

// Stream is one open client connection's receive side. Events arrive
// on a bounded channel so a stalled consumer never blocks the registry.
type Stream struct {
	userID string
	ch     chan Event
}

// Events returns the channel the connection handler drains.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Registry is the multi-map from user id to that user's open streams.
// It is the only shared mutable structure in the fanout path and is
// mutated exclusively through Register, Deregister and Broadcast.
type Registry struct {
	mu      sync.Mutex
	streams map[string]map[*Stream]struct{}
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		streams: make(map[string]map[*Stream]struct{}),
		logger:  logger,
	}
}

// Register opens a new stream for a user. A user may hold any number
// of simultaneous streams, one per open tab or device.
func (r *Registry) Register(userID string) *Stream {
	stream := &Stream{
		userID: userID,
		ch:     make(chan Event, streamBuffer),
	}

	r.mu.Lock()
	set, ok := r.streams[userID]
	if !ok {
		set = make(map[*Stream]struct{})
		r.streams[userID] = set
	}
	set[stream] = struct{}{}
	total := len(set)
	r.mu.Unlock()

	r.logger.Info("stream connected", slog.String("user_id", userID), slog.Int("total", total))
	return stream
}

// Deregister removes a stream. The per-user entry is dropped entirely
// once its last stream closes so the map stays bounded.
func (r *Registry) Deregister(stream *Stream) {
	r.mu.Lock()
	set, ok := r.streams[stream.userID]
	if ok {
		delete(set, stream)
		if len(set) == 0 {
			delete(r.streams, stream.userID)
		}
	}
	remaining := len(set)
	r.mu.Unlock()

	if ok {
		r.logger.Info("stream disconnected", slog.String("user_id", stream.userID), slog.Int("remaining", remaining))
	}
}

// Broadcast sends a named event to every open stream of a user. It is
// a no-op when the user has no streams. Delivery is fire-and-forget:
// the send never blocks, and when a stream's buffer is full the oldest
// pending event is dropped to make room for the new one.
func (r *Registry) Broadcast(userID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Warn("event payload not serializable", slog.String("event", event), slog.String("error", err.Error()))
		return
	}
	ev := Event{Name: event, Data: data}

	r.mu.Lock()
	defer r.mu.Unlock()

	for stream := range r.streams[userID] {
		select {
		case stream.ch <- ev:
		default:
			select {
			case <-stream.ch:
			default:
			}
			select {
			case stream.ch <- ev:
			default:
			}
			r.logger.Warn("slow stream, dropped oldest event", slog.String("user_id", userID))
		}
	}
}

// Count returns how many streams are open for a user.
func (r *Registry) Count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.streams[userID])
}
