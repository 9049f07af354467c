package messaging

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const consumerTag = "raven-push-consumer"

// Consumer reads push messages from a RabbitMQ queue with a fixed pool of workers
type Consumer struct {
	conn        *amqp.Connection
	logger      *zap.Logger
	queueName   string
	concurrency int
	processor   *Processor
	stopChannel chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewConsumer(conn *amqp.Connection, logger *zap.Logger, queueName string, concurrency int, processor *Processor) *Consumer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Consumer{
		conn:        conn,
		logger:      logger.Named("consumer"),
		queueName:   queueName,
		concurrency: concurrency,
		processor:   processor,
		stopChannel: make(chan struct{}),
	}
}

// Start declares the queue and consumes until Stop is called or ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %q: %w", c.queueName, err)
	}

	// limit unacked deliveries to the pool size
	if err := ch.Qos(c.concurrency, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		consumerTag,
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer started", zap.String("queue", q.Name), zap.Int("concurrency", c.concurrency))

	c.wg.Add(c.concurrency)
	for i := 0; i < c.concurrency; i++ {
		go func(workerID int) {
			defer c.wg.Done()
			logger := c.logger.With(zap.Int("worker_id", workerID))
			for {
				select {
				case <-ctx.Done():
					return
				case d, ok := <-msgs:
					if !ok {
						logger.Info("Delivery channel closed")
						return
					}
					c.processor.ProcessMessage(ctx, d)
				}
			}
		}(i)
	}

	select {
	case <-c.stopChannel:
	case <-ctx.Done():
	}
	cancel()

	c.wg.Wait()
	c.logger.Info("Consumer stopped")
	return nil
}

// Stop signals Start to return once the workers finish
func (c *Consumer) Stop() {
	c.stopOnce.Do(func() { close(c.stopChannel) })
}
