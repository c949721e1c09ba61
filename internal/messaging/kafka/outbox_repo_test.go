package kafka_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"the-work-standard/internal/messaging/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestOutboxRepository_Create(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := kafka.NewOutboxRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO outbox_events")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, kafka.OutboxEvent{
			ID:          "evt-1",
			AggregateID: "user-1",
			EventType:   "user.registered",
			Topic:       "topic",
			Payload:     []byte(`{}`),
			Status:      kafka.OutboxStatusPending,
		})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Invalid Event Is Rejected Before Query", func(t *testing.T) {
		err := repo.Create(ctx, kafka.OutboxEvent{ID: "evt-2", Topic: "topic", Status: kafka.OutboxStatusPending})

		assert.EqualError(t, err, "outbox payload is required")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_ListPending(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := kafka.NewOutboxRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "request_id", "aggregate_type", "aggregate_id", "event_type", "topic", "payload", "status", "retry_count", "next_retry_at",
	}).AddRow("evt-1", "req-1", "user", "user-1", "user.registered", "topic", []byte(`{}`), kafka.OutboxStatusPending, 0, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM outbox_events")).WillReturnRows(rows)

	events, err := repo.ListPending(context.Background(), 10)

	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "user-1", events[0].AggregateID)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkSentAndFailed(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := kafka.NewOutboxRepository(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events")).
		WithArgs(kafka.OutboxStatusSent, "evt-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("retry_count = retry_count + 1")).
		WithArgs(kafka.MaxOutboxAttempts, kafka.OutboxStatusDead, kafka.OutboxStatusFailed, "broker down", "evt-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkSent(ctx, "evt-1"))
	assert.NoError(t, repo.MarkFailed(ctx, "evt-2", "broker down"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOutboxEvent(t *testing.T) {
	valid := kafka.OutboxEvent{ID: "1", Topic: "t", Payload: []byte("x"), Status: kafka.OutboxStatusPending}
	assert.NoError(t, kafka.ValidateOutboxEvent(valid))

	missingID := valid
	missingID.ID = ""
	assert.EqualError(t, kafka.ValidateOutboxEvent(missingID), "outbox id is required")

	badStatus := valid
	badStatus.Status = "queued"
	assert.EqualError(t, kafka.ValidateOutboxEvent(badStatus), "invalid outbox status: queued")
}
