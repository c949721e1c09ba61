// Package producer relays committed outbox rows to Kafka.
package producer

import (
	"context"
	"time"

	"the-work-standard/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultBatchSize    = 50
	defaultPollInterval = 3 * time.Second
)

// MessageWriter is the part of *kafkago.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type Relay struct {
	repo         kafka.OutboxRepository
	writer       MessageWriter
	logger       *zap.Logger
	pollInterval time.Duration
	batchSize    int
}

func NewRelay(repo kafka.OutboxRepository, writer MessageWriter, logger *zap.Logger, pollInterval time.Duration) *Relay {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		repo:         repo,
		writer:       writer,
		logger:       logger.Named("kafka.relay"),
		pollInterval: pollInterval,
		batchSize:    defaultBatchSize,
	}
}

// Run drains the outbox once, then again on every tick, until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("outbox relay started", zap.Duration("poll_interval", r.pollInterval))
	defer r.logger.Info("outbox relay stopped")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		r.drain(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// drain keeps pulling full batches so a backlog clears without waiting for
// the next tick.
func (r *Relay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.RelayBatch(ctx)
		if err != nil {
			r.logger.Error("relay outbox batch failed", zap.Error(err))
			return
		}
		if n < r.batchSize {
			return
		}
	}
}

// RelayBatch publishes one batch of due rows and returns how many it picked
// up. A failed publish is recorded on the row and does not stop the batch.
func (r *Relay) RelayBatch(ctx context.Context) (int, error) {
	events, err := r.repo.ListPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	for _, event := range events {
		log := r.logger.With(
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		)

		if err := r.writer.WriteMessages(ctx, message(event)); err != nil {
			log.Warn("publish outbox event failed", zap.Int("attempt", event.RetryCount+1), zap.Error(err))
			if markErr := r.repo.MarkFailed(ctx, event.ID, err.Error()); markErr != nil {
				log.Error("mark outbox event failed", zap.Error(markErr))
			}
			if event.RetryCount+1 >= kafka.MaxOutboxAttempts {
				log.Error("outbox event dead-lettered", zap.Error(err))
			}
			continue
		}

		if err := r.repo.MarkSent(ctx, event.ID); err != nil {
			// the consumer is idempotent, a resend is harmless
			log.Error("mark outbox event sent failed", zap.Error(err))
			continue
		}
		log.Debug("outbox event sent")
	}

	return len(events), nil
}

func message(event kafka.OutboxEvent) kafkago.Message {
	headers := []kafkago.Header{
		{Key: "event_type", Value: []byte(event.EventType)},
		{Key: "aggregate_type", Value: []byte(event.AggregateType)},
	}
	if event.RequestID != "" {
		headers = append(headers, kafkago.Header{Key: "request_id", Value: []byte(event.RequestID)})
	}
	return kafkago.Message{
		Topic:   event.Topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
}
