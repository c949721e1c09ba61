package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"the-work-standard/internal/config"
	"the-work-standard/internal/messaging/kafka"
	"the-work-standard/internal/messaging/kafka/producer"
	"the-work-standard/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays outbox rows to Kafka until SIGINT or SIGTERM.
func RunWorker(cfg *config.APIConfig) error {
	logger := zap.L().Named("app.worker")

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB(), 5)
	if err != nil {
		return err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	writer, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run returns once ctx is cancelled and the current batch is done
	producer.NewRelay(kafka.NewOutboxRepository(gormDB), writer, logger, cfg.OutboxPollInterval).Run(ctx)

	logger.Info("worker shut down")
	return nil
}
