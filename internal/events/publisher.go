package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/config"
	"github.com/punchamoorthee/ledgerbook/internal/domain"
)

func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(
		name,    // name
		"topic", // type
		true,    // durable
		false,   // auto-deleted
		false,   // internal
		false,   // no-wait
		nil,     // arguments
	)
}

// RabbitMQPublisher publishes analysis events to a topic exchange.
type RabbitMQPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	mu       sync.Mutex
	log      *zap.Logger
}

func NewRabbitMQPublisher(cfg config.RabbitMQConfig, log *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareExchange(channel, cfg.Exchange); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	log.Info("rabbitmq publisher initialized", zap.String("exchange", cfg.Exchange))
	return &RabbitMQPublisher{conn: conn, channel: channel, exchange: cfg.Exchange, log: log}, nil
}

// PublishAnalysis sends the event with eventType as routing key.
func (p *RabbitMQPublisher) PublishAnalysis(ctx context.Context, eventType string, a *domain.Analysis) error {
	now := time.Now()
	event := NewAnalysisEvent(eventType, a, now)
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange, // exchange
		eventType,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.EventID,
			Timestamp:    now,
			Type:         eventType,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", eventType, err)
	}

	p.log.Debug("analysis event published",
		zap.String("event_id", event.EventID),
		zap.String("event_type", eventType),
		zap.Int64("analysis_id", a.ID))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.log.Warn("error closing channel", zap.Error(err))
	}
	return p.conn.Close()
}

// LocalPublisher turns analysis events into notifications in process, for deployments
// without a broker.
type LocalPublisher struct {
	notifier Notifier
	log      *zap.Logger
}

func NewLocalPublisher(notifier Notifier, log *zap.Logger) *LocalPublisher {
	return &LocalPublisher{notifier: notifier, log: log}
}

func (p *LocalPublisher) PublishAnalysis(ctx context.Context, eventType string, a *domain.Analysis) error {
	n, err := deliver(ctx, p.notifier, NewAnalysisEvent(eventType, a, time.Now()))
	if err != nil {
		return err
	}
	p.log.Debug("notification delivered locally", zap.Int64("notification_id", n.ID), zap.Int64("user_id", n.UserID))
	return nil
}
