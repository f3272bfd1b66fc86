package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
	"tfashion-storefront/internal/domain"
)

const publishTimeout = 5 * time.Second

type RabbitPublisher struct {
	conn   *amqp.Connection
	queue  string
	logger *zap.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

func NewRabbitPublisher(cfg config.RabbitMQConfig, logger *zap.Logger) (*RabbitPublisher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", cfg.Queue, err)
	}
	return &RabbitPublisher{conn: conn, ch: ch, queue: cfg.Queue, logger: logger}, nil
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, order domain.PlacedOrder) error {
	body, err := json.Marshal(newOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    order.Ref,
			Timestamp:    order.PlacedAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	p.logger.Info("order event published", zap.String("queue", p.queue), zap.String("order_ref", order.Ref))
	return nil
}

func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}
