package bootstrap

import (
	"context"
	"testing"
	"time"

	"the-work-standard/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStdoutAuditLogger_Log(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := NewStdoutAuditLogger(zap.New(core))

	ctx := contextutil.WithRequestID(context.Background(), "req-1")
	ctx = contextutil.WithUserID(ctx, "admin-1")
	ctx = contextutil.WithCompany(ctx, "c-1")

	audit.Log(ctx, AuditLog{
		Action:  "PROFILE_ROLE_CHANGED",
		Message: "role updated",
		Meta:    map[string]any{"to": "admin"},
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "PROFILE_ROLE_CHANGED", fields["action"])
		assert.Equal(t, "c-1", fields["company_id"])
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "admin-1", fields["actor_id"])
		assert.Equal(t, "audit", entries[0].LoggerName)
	}
}

func TestStdoutConfirmationSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sender := NewStdoutConfirmationSender(zap.New(core))

	err := sender.SendConfirmation(context.Background(), "kim@example.com", "tok")

	assert.NoError(t, err)
	if assert.Len(t, logs.All(), 1) {
		assert.Equal(t, "kim@example.com", logs.All()[0].ContextMap()["email"])
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("production", "warn")
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	logger, err = NewLogger("development", "")
	assert.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("development", "loud")
	assert.Error(t, err)
}

type recordingAudit struct{ actions []string }

func (r *recordingAudit) Log(_ context.Context, e AuditLog) { r.actions = append(r.actions, e.Action) }

func TestRunHTTPServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &recordingAudit{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- RunHTTPServer(ctx, gin.New(), ServerConfig{Port: "0"}, audit)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.Equal(t, []string{"SERVER_SHUTDOWN"}, audit.actions)
}
