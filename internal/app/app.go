package app

import (
	"net/http"

	"the-work-standard/internal/config"
	"the-work-standard/internal/middleware"
	"the-work-standard/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the stores and mounts every module on router. The
// returned cleanup closes the connections.
func BuildApp(router *gin.Engine, cfg *config.APIConfig, logger *zap.Logger) (func(), error) {
	// 1. Setup Infrastructure
	gormDB, err := connection.ConnectGORMWithRetry(cfg.DB(), 5)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := Migrate(gormDB); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		logger.Info("schema migrated")
	}

	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	logger.Info("redis connection established")

	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ContextLogger(logger))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 2. Register Modules & Routes
	if err := registerModules(router, gormDB, redisClient, cfg, logger); err != nil {
		_ = redisClient.Close()
		_ = sqlDB.Close()
		return nil, err
	}

	return func() {
		_ = redisClient.Close()
		_ = sqlDB.Close()
	}, nil
}
