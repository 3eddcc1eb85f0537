package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-activity-api/internal/config"
	"github.com/noah-isme/gema-activity-api/internal/handler"
	"github.com/noah-isme/gema-activity-api/internal/middleware"
	"github.com/noah-isme/gema-activity-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ActivityHandler *handler.ActivityHandler
	HealthProbes    map[string]handler.HealthProbe
	JWTMiddleware   fiber.Handler
	RateLimiter     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	app.Get("/metrics", jwtMiddleware, middleware.RequireRole(middleware.AuthRoleAdmin, middleware.AuthRoleManager), observability.MetricsHandler())

	if deps.ActivityHandler != nil {
		handlers := []fiber.Handler{jwtMiddleware, middleware.Authenticated()}
		if deps.RateLimiter != nil {
			handlers = append(handlers, deps.RateLimiter)
		}
		me := app.Group("/api/v2/me", handlers...)
		deps.ActivityHandler.Register(me)
	}
}
