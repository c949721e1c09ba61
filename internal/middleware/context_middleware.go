package middleware

import (
	"the-work-standard/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ContextLogger attaches a request-scoped logger so services can log through
// contextutil.GetLogger without knowing about gin.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := contextutil.GetRequestID(c.Request.Context())
		if rid == "" {
			// mounted without RequestID
			rid = uuid.NewString()
			c.Header(RequestIDHeader, rid)
		}

		reqLogger := logger.With(
			zap.String("request_id", rid),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
		)

		ctx := c.Request.Context()
		ctx = contextutil.WithRequestID(ctx, rid)
		ctx = contextutil.WithLogger(ctx, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if uid := c.GetString("user_id"); uid != "" {
			reqLogger = reqLogger.With(zap.String("user_id", uid))
		}
		reqLogger.Debug("request completed", zap.Int("status", c.Writer.Status()))
	}
}
