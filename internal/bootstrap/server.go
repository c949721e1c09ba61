package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RunHTTPServer serves router until ctx is cancelled, then drains in-flight
// requests. It returns the listen error if the server never came up.
func RunHTTPServer(ctx context.Context, router *gin.Engine, cfg ServerConfig, auditLogger AuditLogger) error {
	logger := zap.L().Named("http")
	server := &http.Server{
		Addr:         net.JoinHostPort("", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", zap.String("port", cfg.Port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown requested", zap.Error(context.Cause(ctx)))
	auditLogger.Log(context.WithoutCancel(ctx), AuditLog{
		Action:  "SERVER_SHUTDOWN",
		Message: "api is shutting down",
		Meta:    map[string]any{"port": cfg.Port},
	})

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
		return err
	}
	logger.Info("api stopped")
	return nil
}
