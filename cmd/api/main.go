package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"the-work-standard/internal/app"
	"the-work-standard/internal/bootstrap"
	"the-work-standard/internal/config"
	"the-work-standard/internal/shared/apperror"

	"github.com/gin-gonic/gin"
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
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// build dependency + routes
	cleanup, err := app.BuildApp(r, cfg, logger)
	if err != nil {
		logger.Fatal("build app failed", zap.Error(err))
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = bootstrap.RunHTTPServer(
		ctx,
		r,
		bootstrap.ServerConfig{
			Port:         cfg.Port,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		bootstrap.NewStdoutAuditLogger(logger),
	)
	if err != nil {
		logger.Error("http server failed", zap.Error(err))
	}
}
