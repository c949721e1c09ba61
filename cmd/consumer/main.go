package main

import (
	"log"

	"the-work-standard/internal/app"
	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/config"
	"the-work-standard/internal/shared/apperror"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadAPI()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := bootstrap.NewLogger(cfg.AppEnv, "")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	if err := app.RunConsumer(cfg); err != nil {
		logger.Fatal("run consumer failed", zap.Error(err))
	}
}
