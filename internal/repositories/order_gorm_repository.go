package repositories

import (
	"context"
	"fmt"

	"storefront/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	// Items are written through the association and must not carry a Product.
	err := r.db.WithContext(ctx).Omit("User").Create(order).Error
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.withDetails(r.db.WithContext(ctx)).First(&order, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err, "order", "ID", id)
	}
	return &order, nil
}

// List returns one page of orders, newest first.
func (r *GORMOrderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	// Count and Find each run on their own copy of the filtered query.
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	q = filter.apply(r.withDetails(q).Order("created_at DESC").Order("id DESC"))
	if err := q.Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

func (r *GORMOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, from ...models.OrderStatus) (bool, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id)
	if len(from) > 0 {
		q = q.Where("status IN ?", from)
	}
	res := q.Update("status", status)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *GORMOrderRepository) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, models.OrderStatusDelivered, productID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check delivered orders: %w", err)
	}
	return n > 0, nil
}

func (r *GORMOrderRepository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		Preload("Items.Product").
		Preload("User")
}
