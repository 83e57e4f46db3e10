package noted

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/noted/middleware"
)

// pendingEvent keeps the emitting context so the sink can read values such as the
// request id. Cancellation is stripped: delivery happens after the caller returns.
type pendingEvent struct {
	ctx   context.Context
	event Event
}

// eventQueue stamps events and hands them to a sink on one goroutine.
//
// Session lifecycle events (session.*) decide what the user is signed in as and are
// never dropped: with DropIfFull set they still wait for space, bounded by the
// emitting context. Everything else is dropped and counted when the queue is full.
type eventQueue struct {
	sink       EventSink
	dropIfFull bool
	now        func() time.Time

	pending chan pendingEvent
	stop    chan struct{}
	wg      sync.WaitGroup

	dropped  atomic.Uint64
	closed   atomic.Bool
	stopOnce sync.Once
}

// newEventQueue returns nil when events are disabled; a nil queue ignores every
// call.
func newEventQueue(cfg EventsConfig, sink EventSink) *eventQueue {
	if !cfg.Enabled {
		return nil
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	q := &eventQueue{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		now:        func() time.Time { return time.Now().UTC() },
		pending:    make(chan pendingEvent, size),
		stop:       make(chan struct{}),
	}
	q.wg.Add(1)
	go q.deliver()
	return q
}

func (q *eventQueue) deliver() {
	defer q.wg.Done()

	for {
		select {
		case p := <-q.pending:
			q.sink.Emit(p.ctx, p.event)
		case <-q.stop:
			for {
				select {
				case p := <-q.pending:
					q.sink.Emit(p.ctx, p.event)
				default:
					return
				}
			}
		}
	}
}

// Emit fills in the timestamp and the request id carried by ctx, then queues event.
func (q *eventQueue) Emit(ctx context.Context, event Event) {
	if q == nil || q.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = q.now()
	}
	if event.RequestID == "" {
		event.RequestID, _ = middleware.RequestIDFromContext(ctx)
	}

	p := pendingEvent{ctx: context.WithoutCancel(ctx), event: event}
	if q.dropIfFull && !lifecycleEvent(event.Type) {
		select {
		case q.pending <- p:
		case <-q.stop:
		default:
			q.dropped.Add(1)
		}
		return
	}

	select {
	case q.pending <- p:
	case <-ctx.Done():
		q.dropped.Add(1)
	case <-q.stop:
	}
}

// Close stops accepting events and delivers everything already queued.
func (q *eventQueue) Close() {
	if q == nil {
		return
	}
	q.stopOnce.Do(func() {
		q.closed.Store(true)
		close(q.stop)
		q.wg.Wait()
	})
}

// Dropped counts events lost to a full queue or to an emitting context that ended
// first.
func (q *eventQueue) Dropped() uint64 {
	if q == nil {
		return 0
	}
	return q.dropped.Load()
}

func lifecycleEvent(typ string) bool {
	return strings.HasPrefix(typ, "session.")
}
