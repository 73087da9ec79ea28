package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/trentd187/golf-tournaments/internal/database"
)

// HealthCheck returns a handler for GET /health.
// It answers 200 {"status":"ok"} when the server is up and the database answers a ping
// within two seconds, and 503 otherwise. No authentication.
// It's used by:
//   - container readiness and liveness probes
//   - load balancers deciding whether to send traffic to this instance
//   - developers checking that the server started correctly
func HealthCheck(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "unavailable",
				"database": "unreachable",
			})
		}
		// fiber.Map is shorthand for map[string]interface{}.
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
