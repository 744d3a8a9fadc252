package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
)

// RedisEventSource turns messages on a Redis pub/sub channel into
// roster change signals. Any message counts; the payload is ignored
// because a reconcile always fetches the full snapshot.
type RedisEventSource struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

var _ roster.ChangeEventSource = (*RedisEventSource)(nil)

// NewRedisEventSource creates a source listening on channel
func NewRedisEventSource(client *redis.Client, channel string, logger *zap.Logger) *RedisEventSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisEventSource{client: client, channel: channel, logger: logger}
}

// Subscribe confirms the Redis subscription before returning, so a
// missing or unreachable Redis fails session start.
func (s *RedisEventSource) Subscribe(ctx context.Context) (roster.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.channel, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		ch:     make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go sub.forward(s.logger.With(zap.String("channel", s.channel)))
	return sub, nil
}

// Publish emits a change signal on the channel
func (s *RedisEventSource) Publish(ctx context.Context, reason string) error {
	if err := s.client.Publish(ctx, s.channel, reason).Err(); err != nil {
		return fmt.Errorf("failed to publish change signal: %w", err)
	}
	return nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Events() <-chan struct{} {
	return s.ch
}

func (s *redisSubscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		_ = s.pubsub.Close()
	})
}

func (s *redisSubscription) forward(logger *zap.Logger) {
	defer close(s.ch)

	messages := s.pubsub.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				logger.Warn("roster.events.redis_closed")
				return
			}
			logger.Debug("roster.events.redis_signal", zap.String("payload", msg.Payload))
			select {
			case s.ch <- struct{}{}:
			default:
			}
		}
	}
}
