package noted

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by the client.
const (
	EventNavigationRedirect = "navigation.redirect"
	EventSessionLogin       = "session.login"
	EventSessionLogout      = "session.logout"
	EventSessionExpired     = "session.expired"
	EventLoginFailure       = "login.failure"
)

// Event is one client-side authentication event. It never carries a token.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      string            `json:"type"`
	Username  string            `json:"username,omitempty"`
	Route     string            `json:"route,omitempty"`
	From      string            `json:"from,omitempty"`
	Status    int               `json:"status,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventSink receives events from the client's delivery goroutine. ctx is the
// emitting context without its cancellation.
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a sink with room for buffer events.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events returns the channel events are delivered on.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON document per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing to w. Writes are serialised.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(append(data, '\n'))
}
