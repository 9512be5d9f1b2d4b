package audit

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Emitter accepts audit events without blocking the caller.
type Emitter interface {
	Emit(e Event)
}

// Bus is the channel between business operations and the audit writers.
// Emit never blocks: when the buffer is full or the bus is closed the event is dropped.
type Bus struct {
	mu      sync.RWMutex
	events  chan Event
	closed  bool
	dropped atomic.Int64
}

func NewBus(size int) *Bus {
	if size <= 0 {
		size = 1
	}
	return &Bus{events: make(chan Event, size)}
}

func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		b.drop(e, "bus closed")
		return
	}

	select {
	case b.events <- e:
	default:
		b.drop(e, "buffer full")
	}
}

func (b *Bus) drop(e Event, reason string) {
	b.dropped.Add(1)
	var action Action
	if e.Payload != nil {
		action = e.Payload.Action()
	}
	logger.Warn().Str("event_id", e.ID.String()).Str("action", string(action)).Msgf("Dropped audit event: %s", reason)
}

func (b *Bus) Events() <-chan Event {
	return b.events
}

// Dropped reports how many events were discarded so far.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Close stops accepting events; buffered events stay readable until drained.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.events)
}
