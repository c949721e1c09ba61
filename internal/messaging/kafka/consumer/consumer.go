package consumer

import (
	"context"
	"encoding/json"
	"time"

	"the-work-standard/internal/events"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *kafkago.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// ProfileCreator is satisfied by profile.Service. It must treat an existing
// profile as success.
type ProfileCreator interface {
	CreateFromRegistration(ctx context.Context, evt events.UserRegisteredEvent) error
}

const (
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// ConsumeUserRegistered creates a profile for every user.registered event.
// Messages that cannot be decoded are committed and dropped. A message whose
// profile cannot be written after maxAttempts is left uncommitted.
func ConsumeUserRegistered(
	ctx context.Context,
	reader MessageReader,
	profiles ProfileCreator,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.user_registered")
	log.Info("user registered consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("user registered consumer stopped")
				return
			}
			log.Error("fetch user registered message failed", zap.Error(err))
			continue
		}

		var event events.UserRegisteredEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode user registered event failed",
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			commit(ctx, reader, msg, log)
			continue
		}

		if err := createWithRetry(ctx, profiles, event); err != nil {
			if ctx.Err() != nil {
				log.Info("user registered consumer stopped")
				return
			}
			log.Error("create profile from registration failed",
				zap.String("user_id", event.UserID),
				zap.String("company_id", event.CompanyID),
				zap.Error(err),
			)
			continue
		}

		if !commit(ctx, reader, msg, log) {
			continue
		}

		log.Info("profile created from user registered event",
			zap.String("user_id", event.UserID),
			zap.String("company_id", event.CompanyID),
		)
	}
}

func createWithRetry(ctx context.Context, profiles ProfileCreator, event events.UserRegisteredEvent) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = profiles.CreateFromRegistration(ctx, event); err == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff * time.Duration(attempt)):
		}
	}
	return err
}

func commit(ctx context.Context, reader MessageReader, msg kafkago.Message, log *zap.Logger) bool {
	if err := reader.CommitMessages(ctx, msg); err != nil {
		log.Error("commit user registered message failed", zap.Int64("offset", msg.Offset), zap.Error(err))
		return false
	}
	return true
}
