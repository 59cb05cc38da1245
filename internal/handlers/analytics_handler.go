package handlers

import (
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/middleware"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
)

type AnalyticsHandler struct {
	service *services.AnalyticsService
}

func NewAnalyticsHandler(service *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// RegisterRoutes registers the admin-only report routes.
func (h *AnalyticsHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	analytics := router.Group("/analytics", auth, middleware.AdminOnly())
	analytics.Get("/dashboard", h.HandleDashboard)
	analytics.Get("/sales", h.HandleSales)
	analytics.Get("/top-products", h.HandleTopProducts)
	analytics.Get("/categories", h.HandleCategories)
	analytics.Get("/users", h.HandleUsers)
	analytics.Get("/revenue", h.HandleRevenue)
	analytics.Get("/report", h.HandleReport)
}

func (h *AnalyticsHandler) HandleDashboard(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.Dashboard(c.UserContext(), p)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, stats, "")
}

// HandleSales accepts startDate and endDate as RFC 3339 timestamps or YYYY-MM-DD dates.
func (h *AnalyticsHandler) HandleSales(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	q := services.SalesQuery{GroupBy: c.Query("groupBy")}
	if q.From, err = queryTime(c, "startDate"); err != nil {
		return err
	}
	if q.To, err = queryTime(c, "endDate"); err != nil {
		return err
	}
	sales, err := h.service.SalesByPeriod(c.UserContext(), p, q)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, sales, "")
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperrors.ValidationDetails("Invalid query parameter", map[string]string{key: "must be a date"})
}

func (h *AnalyticsHandler) HandleTopProducts(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		return err
	}
	top, err := h.service.TopProducts(c.UserContext(), p, limit)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, top, "")
}

func (h *AnalyticsHandler) HandleCategories(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.CategoryStats(c.UserContext(), p)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, stats, "")
}

func (h *AnalyticsHandler) HandleUsers(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	stats, err := h.service.UserActivity(c.UserContext(), p)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, stats, "")
}

func (h *AnalyticsHandler) HandleRevenue(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	revenue, err := h.service.RevenueByStatus(c.UserContext(), p)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, revenue, "")
}

func (h *AnalyticsHandler) HandleReport(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	report, err := h.service.FullReport(c.UserContext(), p)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, report, "")
}
