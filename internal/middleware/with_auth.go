package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-activity-api/internal/utils"
)

// Token roles accepted by RequireRole on operational routes. Course roles are
// evaluated by the capability checker instead.
const (
	AuthRoleAdmin   = "admin"
	AuthRoleManager = "manager"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	RequireUser bool
}

// WithAuth wraps a handler with the user presence guard. Role checks live in
// RequireRole.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if opts.RequireUser && c.Locals("user_id") == nil {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		return handler(c)
	}
}

// Authenticated rejects requests without a user id, for use as group middleware.
func Authenticated() fiber.Handler {
	return WithAuth(func(c *fiber.Ctx) error { return c.Next() }, AuthOptions{RequireUser: true})
}
