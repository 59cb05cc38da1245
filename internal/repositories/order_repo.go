package repositories

import (
	"context"

	"storefront/internal/models"
)

// OrderFilter narrows an order listing. An empty UserID or Status matches all.
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
	Pagination
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, order *models.Order) error
	// GetByID loads the order with its items, their products and the owner.
	GetByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	// UpdateStatus moves the order to status only while its current status is
	// one of from. It reports whether the row was updated.
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, from ...models.OrderStatus) (bool, error)
	// HasDeliveredProduct reports whether userID has a DELIVERED order containing productID.
	HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error)
}
