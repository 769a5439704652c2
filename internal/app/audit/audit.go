/*
Package audit records presence events (joins, identity changes and leaves) outside the relay's
event loop. Message content is never recorded.

Events are queued by Record and written by a background worker so that a slow or unavailable
store never delays message fan-out. A full queue drops events.
*/
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"presencechat/internal/app/user"
	"presencechat/internal/pkg/logx"
	"presencechat/internal/pkg/randx"
)

// Kind is the presence transition being recorded.
type Kind string

const (
	KindJoin   Kind = "join"
	KindChange Kind = "change"
	KindLeave  Kind = "leave"
)

// writeTimeout bounds a single store write.
const writeTimeout = 5 * time.Second

// Event is one presence transition.
type Event struct {
	ID         uuid.UUID
	Kind       Kind
	ConnID     string
	Identity   user.Identity
	OccurredAt time.Time
}

// Recorder accepts presence events. Record must not block.
type Recorder interface {
	Record(event Event)
}

// Store persists presence events.
type Store interface {
	InsertEvent(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(Event) {}

// AsyncRecorder queues events for a background worker that writes them to a Store.
type AsyncRecorder struct {
	store Store
	queue chan Event

	// mu guards closed so Record never sends on a closed queue.
	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewAsyncRecorder starts a worker draining a queue of queueSize events into store.
func NewAsyncRecorder(store Store, queueSize int) *AsyncRecorder {
	r := &AsyncRecorder{
		store:  store,
		queue:  make(chan Event, queueSize),
		logger: logx.Component("audit"),
	}

	r.wg.Add(1)
	go r.run()

	return r
}

// Record implements Recorder. Events without an ID get a fresh one.
func (r *AsyncRecorder) Record(event Event) {
	if event.ID == uuid.Nil {
		event.ID = randx.EventID()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return
	}

	select {
	case r.queue <- event:
	default:
		r.logger.Warn().
			Str("kind", string(event.Kind)).
			Str("conn_id", event.ConnID).
			Msg("Audit queue full, dropping presence event.")
	}
}

// Close stops accepting events and waits until the queued ones are written.
func (r *AsyncRecorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *AsyncRecorder) run() {
	defer r.wg.Done()

	for event := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := r.store.InsertEvent(ctx, event)
		cancel()

		if err != nil {
			r.logger.Error().
				Err(err).
				Str("event_id", event.ID.String()).
				Str("kind", string(event.Kind)).
				Msg("Failed to write presence event.")
		}
	}
}
