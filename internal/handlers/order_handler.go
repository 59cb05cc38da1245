package handlers

import (
	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterRoutes registers the order routes. Every route needs authentication.
func (h *OrderHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	orderRoutes := router.Group("/orders", auth)
	orderRoutes.Post("/", h.HandleCreateOrder)
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/my", h.HandleListMyOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Patch("/:id/status", middleware.AdminOnly(), h.HandleUpdateOrderStatus)
	orderRoutes.Post("/:id/cancel", h.HandleCancelOrder)
}

type createOrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	Items []createOrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes *string                  `json:"notes" validate:"omitempty,max=1000"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HandleCreateOrder places an order for the caller.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("Invalid request body: %v", err)
	}
	if len(req.Items) == 0 {
		return apperrors.ValidationDetails("Order must contain at least one item", map[string]string{"items": "is required"})
	}
	if err := validateStruct(&req); err != nil {
		return err
	}

	in := services.CreateOrderInput{Notes: req.Notes}
	for _, item := range req.Items {
		in.Items = append(in.Items, services.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	order, err := h.service.CreateOrder(c.UserContext(), p, in)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, order, "Order created successfully")
}

// HandleListOrders lists orders; non-admins only see their own.
func (h *OrderHandler) HandleListOrders(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	orders, meta, err := h.service.ListOrders(c.UserContext(), p, services.ListOrdersInput{
		UserID: c.Query("userId"),
		Status: models.OrderStatus(c.Query("status")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return paged(c, orders, meta)
}

func (h *OrderHandler) HandleListMyOrders(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	page, limit, err := pageParams(c)
	if err != nil {
		return err
	}
	orders, meta, err := h.service.ListMyOrders(c.UserContext(), p, models.OrderStatus(c.Query("status")), page, limit)
	if err != nil {
		return err
	}
	return paged(c, orders, meta)
}

func (h *OrderHandler) HandleGetOrder(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	order, err := h.service.GetOrder(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order, "")
}

func (h *OrderHandler) HandleUpdateOrderStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	order, err := h.service.UpdateOrderStatus(c.UserContext(), p, c.Params("id"), models.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order, "Order status updated successfully")
}

func (h *OrderHandler) HandleCancelOrder(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	order, err := h.service.CancelOrder(c.UserContext(), p, c.Params("id"))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, order, "Order cancelled successfully")
}
