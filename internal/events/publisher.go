package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/deshiwear/storefront/internal/config"
	"github.com/deshiwear/storefront/internal/entities"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated   = "order.created"
	TypeOrderConfirmed = "order.confirmed"
	TypeOrderCancelled = "order.cancelled"
)

type OrderEvent struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	FinalAmount int64     `json:"final_amount"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits order lifecycle events to Kafka, keyed by order id so
// events for one order stay in partition order.
type Publisher struct {
	logger *slog.Logger
	writer *kafka.Writer
}

func NewPublisher(logger *slog.Logger, cfg config.Kafka) *Publisher {
	return &Publisher{
		logger: logger.With(slog.String("component", "events")),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.OrdersTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: cfg.BatchTimeout,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, order entities.Order) error {
	event := OrderEvent{
		EventID:     uuid.NewString(),
		Type:        eventType,
		OrderID:     order.OrderID,
		UserID:      order.UserID,
		FinalAmount: order.FinalAmount,
		Currency:    order.Currency,
		OccurredAt:  time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.OrderID),
		Value: value,
		Time:  event.OccurredAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	p.logger.Debug("event published",
		slog.String("type", eventType),
		slog.String("order_id", order.OrderID),
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
