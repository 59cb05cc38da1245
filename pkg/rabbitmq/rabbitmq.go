// Package rabbitmq publishes and consumes order lifecycle events over AMQP.
package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

const (
	// Exchange is the topic exchange order events are published to.
	Exchange = "storefront.orders"
	// Queue is bound to every order event routing key.
	Queue = "order_events"
)

// Routing keys of the order events.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderCancelled     = "order.cancelled"
)

// OrderEventItem is one order line in an event payload.
type OrderEventItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price"`
}

// OrderEvent is the JSON body of every order event.
type OrderEvent struct {
	Type           string           `json:"type"`
	OrderID        string           `json:"orderId"`
	UserID         string           `json:"userId"`
	Status         string           `json:"status"`
	PreviousStatus string           `json:"previousStatus,omitempty"`
	TotalPrice     string           `json:"totalPrice"`
	Items          []OrderEventItem `json:"items,omitempty"`
	OccurredAt     time.Time        `json:"occurredAt"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	log     *slog.Logger
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// NewClient connects to RabbitMQ and declares the order exchange and queue.
func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log.Info("rabbitmq connected", "exchange", Exchange, "queue", Queue)
	return &Client{conn: conn, channel: ch, log: log}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", Exchange, err)
	}
	if _, err := ch.QueueDeclare(Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", Queue, err)
	}
	if err := ch.QueueBind(Queue, "order.*", Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", Queue, err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishOrderEvent publishes ev as a persistent JSON message routed by its type.
func (c *Client) PublishOrderEvent(ctx context.Context, ev OrderEvent) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.Publish(Exchange, ev.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		MessageId:    ev.OrderID,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Type, err)
	}
	return nil
}

// Handler processes one decoded order event.
type Handler func(ctx context.Context, ev OrderEvent) error

// ConsumeOrderEvents delivers queued order events to handle until ctx is done.
// Messages are acked on success; handler failures are requeued once and
// undecodable messages are dropped.
func (c *Client) ConsumeOrderEvents(ctx context.Context, handle Handler) error {
	if c == nil || c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	msgs, err := c.channel.Consume(Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				c.dispatch(ctx, msg, handle)
			}
		}
	}()
	return nil
}

func (c *Client) dispatch(ctx context.Context, msg amqp.Delivery, handle Handler) {
	var ev OrderEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		c.log.Warn("dropping undecodable order event", "delivery_tag", msg.DeliveryTag, "error", err)
		_ = msg.Nack(false, false)
		return
	}
	if err := handle(ctx, ev); err != nil {
		c.log.Error("order event handler failed", "type", ev.Type, "order_id", ev.OrderID, "error", err)
		if nackErr := msg.Nack(false, !msg.Redelivered); nackErr != nil {
			c.log.Error("nack failed", "delivery_tag", msg.DeliveryTag, "error", nackErr)
		}
		return
	}
	if err := msg.Ack(false); err != nil {
		c.log.Error("ack failed", "delivery_tag", msg.DeliveryTag, "error", err)
	}
}

// LogOrderEvent is a Handler that records each event in the service log.
func LogOrderEvent(log *slog.Logger) Handler {
	return func(_ context.Context, ev OrderEvent) error {
		log.Info("order event received",
			"type", ev.Type,
			"order_id", ev.OrderID,
			"user_id", ev.UserID,
			"status", ev.Status,
			"previous_status", ev.PreviousStatus,
			"total_price", ev.TotalPrice,
		)
		return nil
	}
}
