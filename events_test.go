package noted

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/noted/middleware"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{gate: make(chan struct{})}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

type syncBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestEventsDisabledReturnsNilQueue(t *testing.T) {
	d := newEventQueue(EventsConfig{Enabled: false, BufferSize: 4}, &countingSink{})
	if d != nil {
		t.Fatal("expected nil queue when events are disabled")
	}
	d.Emit(context.Background(), Event{Type: "ignored"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil queue must report zero drops")
	}
}

func TestEventsCloseDeliversQueued(t *testing.T) {
	sink := &countingSink{}
	d := newEventQueue(EventsConfig{Enabled: true, BufferSize: 16}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Type: EventNavigationRedirect})
	}
	d.Close()

	if got := sink.count.Load(); got != 10 {
		t.Fatalf("expected 10 delivered events, got %d", got)
	}
}

func TestEventsBufferFullDropIfFullDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	d := newEventQueue(EventsConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Emit(context.Background(), Event{Type: "e2"})

	start := time.Now()
	d.Emit(context.Background(), Event{Type: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestEventsBufferFullBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	d := newEventQueue(EventsConfig{Enabled: true, BufferSize: 1, DropIfFull: false}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Emit(context.Background(), Event{Type: "e2"})

	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{Type: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestEventsBlockedEmitHonoursContext(t *testing.T) {
	sink := newGateSink()
	d := newEventQueue(EventsConfig{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Emit(context.Background(), Event{Type: "e2"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, Event{Type: "e3"})
	if time.Since(start) > time.Second {
		t.Fatal("emit must give up when its context ends")
	}
}

func TestEventsCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	d := newEventQueue(EventsConfig{Enabled: true, BufferSize: 4, DropIfFull: true}, &countingSink{})

	d.Emit(context.Background(), Event{Type: "e1"})
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{Type: "e2"})
}

func TestJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	sink.Emit(context.Background(), Event{
		Timestamp: time.Now().UTC(),
		Type:      EventSessionExpired,
		Username:  "alice",
		Status:    401,
	})
	sink.Emit(context.Background(), Event{Type: EventSessionLogout, Username: "alice"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if first["type"] != EventSessionExpired || first["username"] != "alice" || first["status"] != float64(401) {
		t.Fatalf("unexpected event %v", first)
	}
}

func TestEventsNeverCarryToken(t *testing.T) {
	var buf syncBuffer
	env := newTestEnv(t, func(_ *Config, b *Builder) {
		b.WithEventSink(NewJSONWriterSink(&buf))
	})
	ctx := context.Background()

	if err := env.client.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	token := env.client.Session(ctx).Token
	env.api.Revoke()
	_, _ = env.client.ListNotes(ctx)
	_ = env.client.Close()

	out := buf.String()
	if !strings.Contains(out, EventSessionExpired) {
		t.Fatalf("expected events to be written, got %q", out)
	}
	if strings.Contains(out, token) {
		t.Fatal("events must never contain the bearer token")
	}
}

func TestEventsLifecycleNotDroppedWhenFull(t *testing.T) {
	sink := newGateSink()
	q := newEventQueue(EventsConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)
	defer func() {
		close(sink.gate)
		q.Close()
	}()

	q.Emit(context.Background(), Event{Type: EventNavigationRedirect})
	q.Emit(context.Background(), Event{Type: EventNavigationRedirect})

	done := make(chan struct{})
	go func() {
		q.Emit(context.Background(), Event{Type: EventSessionExpired})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("session event must wait for space instead of being dropped")
	case <-time.After(100 * time.Millisecond):
	}

	sink.gate <- struct{}{}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session event never queued")
	}
	if q.Dropped() != 0 {
		t.Fatalf("expected no drops, got %d", q.Dropped())
	}
}

type contextSink struct {
	mu     sync.Mutex
	events []Event
	ctxErr []error
	ids    []string
}

func (s *contextSink) Emit(ctx context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := middleware.RequestIDFromContext(ctx)
	s.events = append(s.events, e)
	s.ctxErr = append(s.ctxErr, ctx.Err())
	s.ids = append(s.ids, id)
}

func TestEventsStampedFromEmittingContext(t *testing.T) {
	sink := &contextSink{}
	q := newEventQueue(EventsConfig{Enabled: true, BufferSize: 4}, sink)
	fixed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	q.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(middleware.WithRequestID(context.Background(), "req-1"))
	q.Emit(ctx, Event{Type: EventSessionLogin, Username: "alice"})
	cancel()
	q.Close()

	if len(sink.events) != 1 {
		t.Fatalf("expected one event, got %d", len(sink.events))
	}
	e := sink.events[0]
	if !e.Timestamp.Equal(fixed) || e.RequestID != "req-1" {
		t.Fatalf("event not stamped: %+v", e)
	}
	if sink.ctxErr[0] != nil {
		t.Fatalf("sink context must outlive the caller, got %v", sink.ctxErr[0])
	}
	if sink.ids[0] != "req-1" {
		t.Fatalf("sink context lost the request id: %q", sink.ids[0])
	}
}
