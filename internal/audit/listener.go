package audit

import (
	"context"
	"sync"
	"time"

	"commerce-service/internal/entity"
)

// Sink persists or forwards one audit record.
type Sink interface {
	Write(ctx context.Context, record entity.AuditRecord) error
}

// Listener drains a Bus with a pool of workers and hands every record to each sink.
type Listener struct {
	bus     *Bus
	sinks   []Sink
	workers int
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewListener(bus *Bus, workers int, sinks ...Sink) *Listener {
	if workers <= 0 {
		workers = 1
	}
	return &Listener{
		bus:     bus,
		sinks:   sinks,
		workers: workers,
		timeout: 5 * time.Second,
	}
}

func (l *Listener) Start() {
	for i := 0; i < l.workers; i++ {
		l.wg.Add(1)
		go func(id int) {
			defer l.wg.Done()
			l.workerLoop(id)
		}(i)
	}
	logger.Info().Msgf("Started %d audit workers", l.workers)
}

// Wait blocks until the bus is closed and every buffered event was handled.
func (l *Listener) Wait() {
	l.wg.Wait()
}

func (l *Listener) workerLoop(id int) {
	for event := range l.bus.Events() {
		l.handle(id, event)
	}
}

func (l *Listener) handle(id int, event Event) {
	record, err := event.Record()
	if err != nil {
		logger.Error().Err(err).Msgf("audit worker %d: invalid event", id)
		return
	}

	for _, sink := range l.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		if err := sink.Write(ctx, record); err != nil {
			logger.Error().Err(err).Str("event_id", record.EventID).Msgf("audit worker %d: failed to write %s record", id, record.Action)
		}
		cancel()
	}
}
