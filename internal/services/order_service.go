package services

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"
	"storefront/internal/models"
	"storefront/internal/policy"
	"storefront/internal/repositories"
	"storefront/pkg/logger"
	"storefront/pkg/rabbitmq"

	"github.com/shopspring/decimal"
)

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput is the payload of CreateOrder.
type CreateOrderInput struct {
	Items []OrderItemInput
	Notes *string
}

// ListOrdersInput filters ListOrders. UserID is honored for admins only.
type ListOrdersInput struct {
	UserID string
	Status models.OrderStatus
	Page   int
	Limit  int
}

// OrderService runs the order workflow: placement, status changes and
// cancellation, keeping product stock consistent with live orders.
type OrderService struct {
	orders    repositories.OrderRepository
	txManager repositories.TxManager
	events    EventPublisher
	now       func() time.Time
}

// NewOrderService creates a new OrderService. events may be nil.
func NewOrderService(orders repositories.OrderRepository, txManager repositories.TxManager, events EventPublisher) *OrderService {
	return &OrderService{
		orders:    orders,
		txManager: txManager,
		events:    events,
		now:       time.Now,
	}
}

// CreateOrder places a PENDING order for p. Product checks, the order insert
// and every stock decrement share one transaction.
func (s *OrderService) CreateOrder(ctx context.Context, p policy.Principal, in CreateOrderInput) (*models.Order, error) {
	items, err := mergeOrderItems(in.Items)
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(string(apperrors.KindValidation)).Inc()
		return nil, err
	}

	order := &models.Order{
		UserID: p.ID,
		Status: models.OrderStatusPending,
		Notes:  in.Notes,
	}

	err = s.txManager.WithinTx(ctx, func(tx repositories.TxRepositories) error {
		total := decimal.Zero
		for _, item := range items {
			product, err := tx.Products().GetByID(ctx, item.ProductID)
			if err != nil {
				return notFoundAs(err, fmt.Sprintf("Product %s not found", item.ProductID))
			}
			if !product.IsActive {
				return apperrors.InvalidState("Product %s is not available", product.Name)
			}
			if item.Quantity > product.Stock {
				return apperrors.InsufficientStock("Insufficient stock for product %s: requested %d, available %d",
					product.Name, item.Quantity, product.Stock)
			}

			line := models.OrderItem{ProductID: product.ID, Quantity: item.Quantity, Price: product.Price}
			order.Items = append(order.Items, line)
			total = total.Add(line.Subtotal())
		}
		order.TotalPrice = total

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		for _, item := range order.Items {
			ok, err := tx.Products().DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// Another order took the stock after our read.
				return apperrors.InsufficientStock("Insufficient stock for product %s", item.ProductID)
			}
		}
		return nil
	})
	if err != nil {
		reason := string(apperrors.KindInternal)
		if appErr, ok := apperrors.As(err); ok {
			reason = string(appErr.Kind)
		}
		metrics.OrdersRejected.WithLabelValues(reason).Inc()
		return nil, err
	}

	created, err := s.orders.GetByID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", order.ID, err)
	}

	metrics.OrdersCreated.Inc()
	logger.FromCtx(ctx).Info("order created", "order_id", created.ID, "user_id", created.UserID, "total", created.TotalPrice.StringFixed(2))
	publish(ctx, s.events, newOrderEvent(rabbitmq.OrderCreated, created, "", s.now()))
	return created, nil
}

// mergeOrderItems validates the requested lines and folds repeated products
// into one line, preserving first-seen order.
func mergeOrderItems(in []OrderItemInput) ([]OrderItemInput, error) {
	if len(in) == 0 {
		return nil, apperrors.Validation("Order must contain at least one item")
	}
	index := make(map[string]int, len(in))
	out := make([]OrderItemInput, 0, len(in))
	for i, item := range in {
		if item.ProductID == "" {
			return nil, apperrors.ValidationDetails("Invalid order item",
				map[string]string{fmt.Sprintf("items[%d].productId", i): "is required"})
		}
		if item.Quantity < 1 {
			return nil, apperrors.ValidationDetails("Invalid order item",
				map[string]string{fmt.Sprintf("items[%d].quantity", i): "must be at least 1"})
		}
		if j, ok := index[item.ProductID]; ok {
			out[j].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out, nil
}

// GetOrder returns an order visible to p.
func (s *OrderService) GetOrder(ctx context.Context, p policy.Principal, id string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	if err := policy.RequireOwnerOrAdmin(p, order.UserID); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders lists orders newest first. Non-admins only ever see their own
// orders, whatever UserID they ask for.
func (s *OrderService) ListOrders(ctx context.Context, p policy.Principal, in ListOrdersInput) ([]models.Order, PageMeta, error) {
	if in.Status != "" && !in.Status.Valid() {
		return nil, PageMeta{}, apperrors.ValidationDetails("Invalid status filter",
			map[string]string{"status": fmt.Sprintf("unknown order status %q", in.Status)})
	}
	page := normalizePage(in.Page, in.Limit)
	orders, total, err := s.orders.List(ctx, repositories.OrderFilter{
		UserID:     policy.ScopeUserFilter(p, in.UserID),
		Status:     in.Status,
		Pagination: page,
	})
	if err != nil {
		return nil, PageMeta{}, err
	}
	return orders, newPageMeta(page, total), nil
}

// ListMyOrders lists p's own orders.
func (s *OrderService) ListMyOrders(ctx context.Context, p policy.Principal, status models.OrderStatus, page, limit int) ([]models.Order, PageMeta, error) {
	self := policy.Principal{ID: p.ID, Role: models.RoleUser}
	return s.ListOrders(ctx, self, ListOrdersInput{Status: status, Page: page, Limit: limit})
}

// UpdateOrderStatus moves an order to status. Admin only. Terminal orders
// never change; moving to CANCELLED restores stock like CancelOrder.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, p policy.Principal, id string, status models.OrderStatus) (*models.Order, error) {
	if err := policy.RequireAdmin(p); err != nil {
		return nil, err
	}
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundAs(err, "Order not found")
	}
	if !status.Valid() {
		return nil, apperrors.ValidationDetails("Invalid order status",
			map[string]string{"status": fmt.Sprintf("unknown order status %q", status)})
	}
	if !models.CanTransition(order.Status, status) {
		return nil, apperrors.InvalidState("Cannot change status of %s order", order.Status)
	}

	if status == models.OrderStatusCancelled {
		return s.cancel(ctx, p, id, nonTerminalStatuses())
	}

	previous := order.Status
	ok, err := s.orders.UpdateStatus(ctx, id, status, nonTerminalStatuses()...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidState("Order %s was finalized concurrently", id)
	}

	updated, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", id, err)
	}
	metrics.StatusTransitions.WithLabelValues(string(status)).Inc()
	logger.FromCtx(ctx).Info("order status changed", "order_id", id, "from", previous, "to", status)
	publish(ctx, s.events, newOrderEvent(rabbitmq.OrderStatusChanged, updated, previous, s.now()))
	return updated, nil
}

// CancelOrder cancels a PENDING or PROCESSING order owned by p (or any such
// order for admins) and returns its stock.
func (s *OrderService) CancelOrder(ctx context.Context, p policy.Principal, id string) (*models.Order, error) {
	return s.cancel(ctx, p, id, []models.OrderStatus{models.OrderStatusPending, models.OrderStatusProcessing})
}

// cancel flips the order to CANCELLED while its status is one of from and
// increments each item's product stock, all in one transaction. The
// conditional status update guarantees stock is restored at most once.
func (s *OrderService) cancel(ctx context.Context, p policy.Principal, id string, from []models.OrderStatus) (*models.Order, error) {
	var previous models.OrderStatus
	err := s.txManager.WithinTx(ctx, func(tx repositories.TxRepositories) error {
		order, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return notFoundAs(err, "Order not found")
		}
		if err := policy.RequireOwnerOrAdmin(p, order.UserID); err != nil {
			return err
		}
		if !containsStatus(from, order.Status) {
			return apperrors.InvalidState("Cannot cancel order with status %s", order.Status)
		}
		previous = order.Status

		ok, err := tx.Orders().UpdateStatus(ctx, id, models.OrderStatusCancelled, from...)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.InvalidState("Order %s was modified concurrently", id)
		}
		for _, item := range order.Items {
			if err := tx.Products().IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cancelled, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload order %s: %w", id, err)
	}
	metrics.OrdersCancelled.Inc()
	metrics.StatusTransitions.WithLabelValues(string(models.OrderStatusCancelled)).Inc()
	logger.FromCtx(ctx).Info("order cancelled", "order_id", id, "previous_status", previous, "by", p.ID)
	publish(ctx, s.events, newOrderEvent(rabbitmq.OrderCancelled, cancelled, previous, s.now()))
	return cancelled, nil
}

func nonTerminalStatuses() []models.OrderStatus {
	var out []models.OrderStatus
	for _, st := range models.OrderStatuses {
		if !st.Terminal() {
			out = append(out, st)
		}
	}
	return out
}

func containsStatus(list []models.OrderStatus, st models.OrderStatus) bool {
	for _, s := range list {
		if s == st {
			return true
		}
	}
	return false
}
