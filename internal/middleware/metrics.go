package middleware

import (
	"strconv"
	"time"

	"storefront/internal/apperrors"
	"storefront/internal/metrics"

	"github.com/gofiber/fiber/v2"
)

// Metrics records the duration of every request by method, route and status.
func Metrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not written the response yet.
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = apperrors.StatusCode(err)
			}
		}
		route := c.Route().Path
		metrics.RequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}
