package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/config"
)

// BindingKey matches every analysis event.
const BindingKey = "analysis.*"

// Consumer turns analysis events into notifications.
type Consumer struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	queue    string
	notifier Notifier
	log      *zap.Logger
}

func NewConsumer(cfg config.RabbitMQConfig, notifier Notifier, log *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	closeAll := func() {
		channel.Close()
		conn.Close()
	}

	if err := declareExchange(channel, cfg.Exchange); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		cfg.Queue, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := channel.QueueBind(queue.Name, BindingKey, cfg.Exchange, false, nil); err != nil {
		closeAll()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	log.Info("rabbitmq consumer initialized",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", queue.Name),
		zap.String("binding_key", BindingKey))

	return &Consumer{conn: conn, channel: channel, queue: queue.Name, notifier: notifier, log: log}, nil
}

// Start consumes until ctx is cancelled. Messages are acknowledged manually: failures are
// requeued, malformed events are dropped.
func (c *Consumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info("rabbitmq consumer started", zap.String("queue", c.queue))

	for {
		select {
		case <-ctx.Done():
			c.log.Info("stopping rabbitmq consumer")
			return nil

		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			c.settle(msg, c.handleMessage(ctx, msg.Body))
		}
	}
}

func (c *Consumer) settle(msg amqp.Delivery, err error) {
	var ackErr error
	switch {
	case err == nil:
		ackErr = msg.Ack(false)
	case errors.Is(err, errMalformed):
		c.log.Warn("dropping malformed event", zap.String("message_id", msg.MessageId), zap.Error(err))
		ackErr = msg.Nack(false, false)
	default:
		c.log.Error("error handling event", zap.String("message_id", msg.MessageId), zap.Error(err))
		ackErr = msg.Nack(false, true)
	}
	if ackErr != nil {
		c.log.Warn("failed to settle message", zap.Error(ackErr))
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var event AnalysisEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}

	n, err := deliver(ctx, c.notifier, event)
	if err != nil {
		return fmt.Errorf("event %s: %w", event.EventID, err)
	}

	c.log.Info("notification created from event",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.Int64("user_id", event.UserID),
		zap.Int64("notification_id", n.ID))
	return nil
}

func (c *Consumer) Close() error {
	if err := c.channel.Close(); err != nil {
		c.log.Warn("error closing channel", zap.Error(err))
	}
	return c.conn.Close()
}
