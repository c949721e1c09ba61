package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"the-work-standard/internal/events"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:generate mockgen -source=auth_events.go -destination=mock/auth_events_mock.go -package=mock

// EventBus fans session events out to every device of a user.
type EventBus interface {
	Publish(ctx context.Context, event events.SessionEvent) error
	Subscribe(ctx context.Context, userID string) (EventStream, error)
}

type EventStream interface {
	Events() <-chan events.SessionEvent
	Close() error
}

type redisEventBus struct {
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRedisEventBus(rdb *redis.Client, logger *zap.Logger) EventBus {
	if logger == nil {
		logger = zap.L()
	}
	return &redisEventBus{rdb: rdb, logger: logger.Named("auth.events")}
}

func (b *redisEventBus) Publish(ctx context.Context, event events.SessionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.rdb.Publish(ctx, events.SessionChannel(event.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}
	return nil
}

func (b *redisEventBus) Subscribe(ctx context.Context, userID string) (EventStream, error) {
	ps := b.rdb.Subscribe(ctx, events.SessionChannel(userID))
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", userID, err)
	}

	s := &redisStream{
		ps:   ps,
		out:  make(chan events.SessionEvent, 16),
		done: make(chan struct{}),
	}
	go s.pump(b.logger.With(zap.String("user_id", userID)))
	return s, nil
}

type redisStream struct {
	ps   *redis.PubSub
	out  chan events.SessionEvent
	done chan struct{}
	once sync.Once
}

func (s *redisStream) pump(logger *zap.Logger) {
	defer close(s.out)
	for msg := range s.ps.Channel() {
		var event events.SessionEvent
		if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
			logger.Warn("drop malformed session event", zap.Error(err))
			continue
		}
		select {
		case s.out <- event:
		case <-s.done:
			return
		}
	}
}

func (s *redisStream) Events() <-chan events.SessionEvent {
	return s.out
}

func (s *redisStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
