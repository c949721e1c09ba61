package bootstrap

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON in production, console
// otherwise. An empty level keeps the preset's default.
func NewLogger(appEnv, level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}
