package messaging

import (
	"context"

	"github.com/quocanhngo/raven-push/internal/metrics"
	"github.com/quocanhngo/raven-push/internal/push"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PushChannel is the Redis channel push messages are published on
const PushChannel = "raven:push"

// RedisSubscriber delivers push messages published on a Redis channel
type RedisSubscriber struct {
	rdb     *redis.Client
	channel string
	handler MessageHandler
	logger  *zap.Logger
}

func NewRedisSubscriber(rdb *redis.Client, channel string, handler MessageHandler, logger *zap.Logger) *RedisSubscriber {
	if channel == "" {
		channel = PushChannel
	}
	return &RedisSubscriber{
		rdb:     rdb,
		channel: channel,
		handler: handler,
		logger:  logger.Named("redis_subscriber"),
	}
}

// Run subscribes and handles messages until ctx is done
func (s *RedisSubscriber) Run(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	s.logger.Info("Push subscriber started", zap.String("channel", s.channel))

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

func (s *RedisSubscriber) handle(ctx context.Context, body string) {
	payload, err := push.ParseMessage([]byte(body))
	if err != nil {
		metrics.PushMessagesRejected.WithLabelValues(metrics.SourceRedis).Inc()
		s.logger.Warn("Rejecting push message", zap.Error(err))
		return
	}
	metrics.PushMessagesReceived.WithLabelValues(metrics.SourceRedis).Inc()
	s.handler.OnBackgroundMessage(ctx, payload)
}
