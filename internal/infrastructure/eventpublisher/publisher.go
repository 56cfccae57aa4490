package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

// EventPublisher drains the outbox and hands events to a Publisher.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	metrics    Metrics
	logger     zerolog.Logger
	locker     Locker
	batchSize  int
	interval   time.Duration
}

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Metrics receives publisher outcomes.
type Metrics interface {
	RecordOutboxPublished()
	RecordOutboxError()
}

// Locker makes sure one replica drains the outbox at a time.
type Locker interface {
	TryRun(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}

// LockKey is the lock taken around each poll when a Locker is set.
const LockKey = "pocketledger:outbox:publisher"

type noopMetrics struct{}

func (noopMetrics) RecordOutboxPublished() {}
func (noopMetrics) RecordOutboxError()     {}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    Metrics
	Logger     zerolog.Logger
	Locker     Locker        // optional
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With().Str("component", "outbox").Logger(),
		locker:     cfg.Locker,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
	}
}

// Start polls the outbox until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	ep.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			ep.tick(ctx)
		}
	}
}

func (ep *EventPublisher) tick(ctx context.Context) {
	var err error
	if ep.locker == nil {
		_, err = ep.processEvents(ctx)
	} else {
		var ran bool
		ran, err = ep.locker.TryRun(ctx, LockKey, func(ctx context.Context) error {
			_, err := ep.processEvents(ctx)
			return err
		})
		if !ran && err == nil {
			ep.logger.Debug().Msg("outbox locked by another replica")
		}
	}
	if err != nil && ctx.Err() == nil {
		ep.metrics.RecordOutboxError()
		ep.logger.Error().Err(err).Msg("error processing events")
	}
}

// processEvents publishes one batch and returns how many events were marked.
func (ep *EventPublisher) processEvents(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	marked := 0
	for _, event := range events {
		if err := ep.publisher.Publish(ctx, event); err != nil {
			ep.metrics.RecordOutboxError()
			ep.logger.Error().Err(err).
				Stringer("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			continue
		}
		ep.metrics.RecordOutboxPublished()

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			ep.metrics.RecordOutboxError()
			ep.logger.Error().Err(err).
				Stringer("event_id", event.ID).
				Msg("failed to mark event as published")
			continue
		}
		marked++
	}

	return marked, nil
}

// LogPublisher writes each event to the log.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Stringer("event_id", event.ID).
		Stringer("user_id", event.UserID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Stringer("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
