package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/marwie0904/leadify-RE-APP-sub001/internal/models"
)

// Sink receives usage events, normally the database store.
type Sink interface {
	InsertUsageEvent(ctx context.Context, ev models.UsageEvent) error
}

// Reporter forwards token-usage events to the sink off the reply path. Report
// never blocks: when the buffer is full the event is dropped and counted.
type Reporter struct {
	sink    Sink
	logger  zerolog.Logger
	events  chan models.UsageEvent
	done    chan struct{}
	timeout time.Duration
}

func NewReporter(sink Sink, logger zerolog.Logger) *Reporter {
	r := &Reporter{
		sink:    sink,
		logger:  logger,
		events:  make(chan models.UsageEvent, 256),
		done:    make(chan struct{}),
		timeout: 5 * time.Second,
	}
	go r.run()
	return r
}

func (r *Reporter) Report(ev models.UsageEvent) {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	select {
	case r.events <- ev:
	default:
		r.logger.Warn().Str("operation", ev.OperationType).Msg("usage event dropped, buffer full")
	}
}

func (r *Reporter) run() {
	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		if err := r.sink.InsertUsageEvent(ctx, ev); err != nil {
			r.logger.Error().Err(err).Str("operation", ev.OperationType).Msg("usage event write failed")
		}
		cancel()
	}
	close(r.done)
}

// Close drains buffered events and stops the worker.
func (r *Reporter) Close() {
	close(r.events)
	<-r.done
}
