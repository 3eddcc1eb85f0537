package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-activity-api/internal/config"
	"github.com/noah-isme/gema-activity-api/internal/dto"
	"github.com/noah-isme/gema-activity-api/internal/handler"
	"github.com/noah-isme/gema-activity-api/internal/router"
)

type emptyDeadlines struct{}

func (emptyDeadlines) Upcoming(context.Context, any, int) ([]dto.Deadline, error) {
	return []dto.Deadline{}, nil
}

func fakeAuth(c *fiber.Ctx) error {
	switch c.Get("Authorization") {
	case "student":
		c.Locals("user_id", uint(3))
		c.Locals("user_role", "student")
	case "admin":
		c.Locals("user_id", uint(1))
		c.Locals("user_role", "admin")
	}
	return c.Next()
}

func newRouterApp() *fiber.App {
	app := fiber.New()
	activity := handler.NewActivityHandler(handler.ActivityServices{Deadlines: emptyDeadlines{}}, nil, zerolog.Nop())
	router.Register(app, config.Config{AppName: "activity", Aggregation: config.AggregationConfig{Lookback: time.Hour}}, router.Dependencies{
		ActivityHandler: activity,
		JWTMiddleware:   fakeAuth,
	})
	return app
}

func request(t *testing.T, app *fiber.App, path, auth string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRoutes(t *testing.T) {
	app := newRouterApp()

	resp := request(t, app, "/api/v1/health", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "activity", resp.Header.Get("X-Application"))

	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "/api/v2/me/deadlines", "").StatusCode)
	require.Equal(t, fiber.StatusOK, request(t, app, "/api/v2/me/deadlines", "student").StatusCode)

	require.Equal(t, fiber.StatusForbidden, request(t, app, "/metrics", "student").StatusCode)
	require.Equal(t, fiber.StatusOK, request(t, app, "/metrics", "admin").StatusCode)
}
