package middleware

import (
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RequestLogger attaches a logger tagged with the request id to the request
// context. It must run after the requestid middleware.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := logger.L
		if rid, ok := c.Locals(requestid.ConfigDefault.ContextKey).(string); ok && rid != "" {
			log = log.With("request_id", rid)
		}
		c.SetUserContext(logger.WithLogger(c.UserContext(), log))
		return c.Next()
	}
}
