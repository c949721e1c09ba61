package producer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"the-work-standard/internal/messaging/kafka"
	kafkaMock "the-work-standard/internal/messaging/kafka/mock"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu        sync.Mutex
	failTopic string
	written   []kafkago.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if m.Topic == w.failTopic {
			return errors.New("broker unavailable")
		}
		w.written = append(w.written, m)
	}
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.written)
}

func TestRelay_RelayBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Publishes And Marks Each Event", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		writer := &fakeWriter{failTopic: "down"}

		repo.EXPECT().ListPending(ctx, defaultBatchSize).Return([]kafka.OutboxEvent{
			{ID: "1", RequestID: "req-1", AggregateID: "user-1", EventType: "user.registered", AggregateType: "user", Topic: "ok", Payload: []byte("a")},
			{ID: "2", AggregateID: "user-2", EventType: "user.registered", AggregateType: "user", Topic: "down", Payload: []byte("b")},
		}, nil)
		repo.EXPECT().MarkSent(ctx, "1").Return(nil)
		repo.EXPECT().MarkFailed(ctx, "2", "broker unavailable").Return(nil)

		n, err := NewRelay(repo, writer, zap.NewNop(), time.Second).RelayBatch(ctx)

		require.NoError(t, err)
		assert.Equal(t, 2, n)
		require.Len(t, writer.written, 1)
		msg := writer.written[0]
		assert.Equal(t, []byte("user-1"), msg.Key)
		assert.Equal(t, kafkago.Header{Key: "request_id", Value: []byte("req-1")}, msg.Headers[2])
	})

	t.Run("List Failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := kafkaMock.NewMockOutboxRepository(ctrl)
		repo.EXPECT().ListPending(ctx, defaultBatchSize).Return(nil, errors.New("db down"))

		_, err := NewRelay(repo, &fakeWriter{}, nil, 0).RelayBatch(ctx)
		assert.EqualError(t, err, "db down")
	})
}

func TestRelay_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := kafkaMock.NewMockOutboxRepository(ctrl)
	writer := &fakeWriter{}

	full := make([]kafka.OutboxEvent, defaultBatchSize)
	for i := range full {
		full[i] = kafka.OutboxEvent{ID: "e", Topic: "t", Payload: []byte("x")}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// a full batch is followed immediately by another read
	gomock.InOrder(
		repo.EXPECT().ListPending(gomock.Any(), defaultBatchSize).Return(full, nil),
		repo.EXPECT().ListPending(gomock.Any(), defaultBatchSize).DoAndReturn(
			func(context.Context, int) ([]kafka.OutboxEvent, error) {
				cancel()
				return nil, nil
			}),
	)
	repo.EXPECT().MarkSent(gomock.Any(), "e").Return(nil).Times(defaultBatchSize)

	done := make(chan struct{})
	go func() {
		NewRelay(repo, writer, zap.NewNop(), time.Hour).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
	assert.Equal(t, defaultBatchSize, writer.count())
}
