package middleware

import (
	"context"
	"strings"

	"storefront/internal/apperrors"
	"storefront/internal/policy"

	"github.com/gofiber/fiber/v2"
)

const principalKey = "principal"

// TokenValidator verifies a bearer token and returns the principal of the
// account it was issued to.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (policy.Principal, error)
}

// AuthRequired rejects requests without a valid "Bearer <token>" header and
// stores the verified principal for the handlers.
func AuthRequired(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperrors.Unauthenticated("Authorization header is required")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			return apperrors.Unauthenticated("Authorization header format must be 'Bearer <token>'")
		}

		principal, err := tokens.ValidateToken(c.UserContext(), parts[1])
		if err != nil {
			return err
		}
		c.Locals(principalKey, principal)
		return c.Next()
	}
}

// AdminOnly must run after AuthRequired.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := Principal(c)
		if !ok {
			return apperrors.Unauthenticated("Authentication required")
		}
		if err := policy.RequireAdmin(p); err != nil {
			return err
		}
		return c.Next()
	}
}

// Principal returns the authenticated principal of the request.
func Principal(c *fiber.Ctx) (policy.Principal, bool) {
	p, ok := c.Locals(principalKey).(policy.Principal)
	return p, ok
}
