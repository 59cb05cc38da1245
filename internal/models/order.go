package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every known status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// transitions is the status graph. Every non-terminal status may move to any
// status, stages may be skipped; DELIVERED and CANCELLED have no way out.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    OrderStatuses,
	OrderStatusProcessing: OrderStatuses,
	OrderStatusShipped:    OrderStatuses,
	OrderStatusDelivered:  nil,
	OrderStatusCancelled:  nil,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Cancellable reports whether an order in status s may still be cancelled.
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}

// CanTransition reports whether the status graph allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OrderItem represents a single line of an order. Price is the product's unit
// price captured when the order was placed and never changes afterwards.
type OrderItem struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `json:"orderId" gorm:"type:varchar(36);not null;index"`
	ProductID string          `json:"productId" gorm:"type:varchar(36);not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null;check:chk_order_items_quantity_positive,quantity > 0"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (i *OrderItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// Subtotal is the line total at order time.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a customer order. TotalPrice is frozen at creation.
type Order struct {
	ID         string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID     string          `json:"userId" gorm:"type:varchar(36);not null;index"`
	Status     OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	TotalPrice decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	Notes      *string         `json:"notes,omitempty" gorm:"type:varchar(1000)"`
	Items      []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	User       *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt  time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}
