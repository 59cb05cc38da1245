package services

import (
	"context"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/pkg/logger"
	"storefront/pkg/rabbitmq"
)

// EventPublisher delivers order lifecycle events to the message broker.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, ev rabbitmq.OrderEvent) error
}

func newOrderEvent(kind string, order *models.Order, previous models.OrderStatus, at time.Time) rabbitmq.OrderEvent {
	ev := rabbitmq.OrderEvent{
		Type:           kind,
		OrderID:        order.ID,
		UserID:         order.UserID,
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		TotalPrice:     order.TotalPrice.StringFixed(2),
		OccurredAt:     at,
	}
	for _, item := range order.Items {
		ev.Items = append(ev.Items, rabbitmq.OrderEventItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price.StringFixed(2),
		})
	}
	return ev
}

// publish sends ev if a publisher is configured. Failures are logged only:
// the order change has already been committed.
func publish(ctx context.Context, pub EventPublisher, ev rabbitmq.OrderEvent) {
	if pub == nil {
		return
	}
	if err := pub.PublishOrderEvent(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues(ev.Type, "error").Inc()
		logger.FromCtx(ctx).Warn("failed to publish order event", "type", ev.Type, "order_id", ev.OrderID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(ev.Type, "ok").Inc()
}
