package messaging

import (
	"context"

	"github.com/quocanhngo/raven-push/internal/metrics"
	"github.com/quocanhngo/raven-push/internal/model"
	"github.com/quocanhngo/raven-push/internal/push"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MessageHandler receives decoded push messages (the worker in production)
type MessageHandler interface {
	OnBackgroundMessage(ctx context.Context, p model.PushPayload)
}

// Processor handles deliveries from the push queue
type Processor struct {
	logger  *zap.Logger
	handler MessageHandler
}

func NewProcessor(logger *zap.Logger, handler MessageHandler) *Processor {
	return &Processor{
		logger:  logger.Named("processor"),
		handler: handler,
	}
}

// ProcessMessage decodes a delivery and hands it to the handler. Push
// messages are never redelivered: a message that cannot be decoded is
// nacked without requeue, everything else is acked once handled.
func (p *Processor) ProcessMessage(ctx context.Context, d amqp.Delivery) {
	payload, err := push.ParseMessage(d.Body)
	if err != nil {
		metrics.PushMessagesRejected.WithLabelValues(metrics.SourceRabbitMQ).Inc()
		p.logger.Warn("Rejecting push message",
			zap.Error(err),
			zap.ByteString("body", d.Body),
			zap.Uint64("delivery_tag", d.DeliveryTag))
		if ackErr := d.Nack(false, false); ackErr != nil {
			p.logger.Error("Failed to nack message", zap.Error(ackErr), zap.Uint64("delivery_tag", d.DeliveryTag))
		}
		return
	}

	metrics.PushMessagesReceived.WithLabelValues(metrics.SourceRabbitMQ).Inc()
	p.handler.OnBackgroundMessage(ctx, payload)

	if ackErr := d.Ack(false); ackErr != nil {
		p.logger.Error("Failed to ack message", zap.Error(ackErr), zap.Uint64("delivery_tag", d.DeliveryTag))
		return
	}
	p.logger.Debug("Push message processed",
		zap.String("channel_id", payload.ChannelID),
		zap.Uint64("delivery_tag", d.DeliveryTag))
}
