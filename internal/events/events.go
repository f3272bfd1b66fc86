package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
	"tfashion-storefront/internal/domain"
)

// OrderPlacedEvent is the wire form of a placed order.
type OrderPlacedEvent struct {
	OrderRef       string            `json:"order_ref"`
	Scope          string            `json:"scope"`
	UserID         string            `json:"user_id"`
	Items          []domain.CartItem `json:"items"`
	Total          int64             `json:"total"`
	Currency       string            `json:"currency"`
	PaymentChannel string            `json:"payment_channel"`
	City           string            `json:"city"`
	PlacedAt       time.Time         `json:"placed_at"`
	EventTime      time.Time         `json:"event_time"`
}

func newOrderPlacedEvent(o domain.PlacedOrder) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderRef:       o.Ref,
		Scope:          o.Scope,
		UserID:         o.UserID,
		Items:          o.Items,
		Total:          o.Total,
		Currency:       o.Currency,
		PaymentChannel: o.PaymentChannel,
		City:           o.City,
		PlacedAt:       o.PlacedAt,
		EventTime:      time.Now().UTC(),
	}
}

// Publisher announces placed orders to downstream consumers.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order domain.PlacedOrder) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) PublishOrderPlaced(context.Context, domain.PlacedOrder) error { return nil }
func (Noop) Close() error                                                 { return nil }

// Open builds the publisher selected by cfg.Events.Driver.
func Open(cfg config.Config, logger *zap.Logger) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Events.Driver)) {
	case "", "none":
		return Noop{}, nil
	case "rabbitmq", "amqp":
		return NewRabbitPublisher(cfg.RabbitMQ, logger)
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka, logger)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Events.Driver)
	}
}
