package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/config"
	"the-work-standard/internal/events"
	"the-work-standard/internal/messaging/kafka/consumer"
	"the-work-standard/internal/profile"
	"the-work-standard/internal/shared/connection"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const profileConsumerGroup = "tws-profile-provisioner"

func RunConsumer(cfg *config.APIConfig) error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB(), 5)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	// new profiles need no session notification
	profileService := profile.NewService(profile.NewRepository(gormDB), nil, bootstrap.NewStdoutAuditLogger(logger), logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		Topic:          events.UserRegisteredTopic,
		GroupID:        profileConsumerGroup,
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer.ConsumeUserRegistered(ctx, reader, profileService, logger)

	logger.Info("consumer shut down")
	return nil
}
