package bootstrap

import (
	"context"
	"time"

	"the-work-standard/internal/shared/contextutil"

	"go.uber.org/zap"
)

type StdoutAuditLogger struct {
	logger *zap.Logger
}

func NewStdoutAuditLogger(logger ...*zap.Logger) *StdoutAuditLogger {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &StdoutAuditLogger{logger: l.Named("audit")}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	meta := contextutil.ExtractMetadata(ctx)
	l.logger.Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.String("request_id", meta.RequestID),
		zap.String("actor_id", meta.UserID),
		zap.String("company_id", meta.CompanyID),
		zap.Any("meta", entry.Meta),
	)
}

// StdoutConfirmationSender logs confirmation tokens instead of mailing them.
// It stands in for a mail relay in development.
type StdoutConfirmationSender struct {
	logger *zap.Logger
}

func NewStdoutConfirmationSender(logger *zap.Logger) *StdoutConfirmationSender {
	if logger == nil {
		logger = zap.L()
	}
	return &StdoutConfirmationSender{logger: logger.Named("confirmation")}
}

func (s *StdoutConfirmationSender) SendConfirmation(_ context.Context, email, confirmToken string) error {
	s.logger.Info("email confirmation issued",
		zap.String("email", email),
		zap.String("token", confirmToken),
	)
	return nil
}
