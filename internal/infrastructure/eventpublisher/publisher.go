package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/ariondjunior/tapajos/internal/domain"
)

// ErrQueueFull is returned when the async queue cannot take more events.
var ErrQueueFull = errors.New("event queue is full")

// Publisher delivers a single event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// AsyncPublisher queues events and delivers them from a background worker,
// so callers never wait on the sink.
type AsyncPublisher struct {
	sink      Publisher
	logger    zerolog.Logger
	queue     chan domain.Event
	batchSize int
	interval  time.Duration
}

// Config for AsyncPublisher.
type Config struct {
	Sink      Publisher
	Logger    zerolog.Logger
	QueueSize int           // Buffered events before Publish fails
	BatchSize int           // Events delivered per wake-up
	Interval  time.Duration // Flush interval when the queue is quiet
}

// NewAsyncPublisher creates a new AsyncPublisher.
func NewAsyncPublisher(cfg Config) *AsyncPublisher {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1024
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = time.Second
	}

	return &AsyncPublisher{
		sink:      cfg.Sink,
		logger:    cfg.Logger,
		queue:     make(chan domain.Event, cfg.QueueSize),
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
	}
}

// Publish enqueues the event.
func (p *AsyncPublisher) Publish(_ context.Context, event domain.Event) error {
	select {
	case p.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start delivers queued events until ctx is cancelled, then drains what is
// left with a fresh context.
func (p *AsyncPublisher) Start(ctx context.Context) error {
	p.logger.Info().
		Int("batch_size", p.batchSize).
		Dur("interval", p.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.drain()
			p.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case ev := <-p.queue:
			p.deliver(ctx, ev)
			p.processBatch(ctx)
		case <-ticker.C:
			p.processBatch(ctx)
		}
	}
}

// processBatch delivers up to batchSize queued events without blocking.
func (p *AsyncPublisher) processBatch(ctx context.Context) {
	for i := 0; i < p.batchSize; i++ {
		select {
		case ev := <-p.queue:
			p.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		select {
		case ev := <-p.queue:
			p.deliver(ctx, ev)
		default:
			return
		}
	}
}

func (p *AsyncPublisher) deliver(ctx context.Context, event domain.Event) {
	if err := p.sink.Publish(ctx, event); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("failed to publish event")
	}
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Str("aggregate_id", event.AggregateID).
		Time("occurred_at", event.OccurredAt).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, domain.Event) error { return nil }
