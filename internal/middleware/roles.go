package middleware

// roles.go holds role-based access control.
// The app has two global roles: admin and user. Admins manage courses and tournaments;
// everyone else plays.

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/trentd187/golf-tournaments/internal/models"
)

// RequireRole returns a middleware handler that allows only users whose role is one of
// roles. Returns HTTP 403 Forbidden otherwise.
//
//	admin.Post("/courses", middleware.RequireRole(models.AppRoleAdmin), handlers.CreateCourse(st))
//
// RequireRole must be used AFTER Auth, because Auth is what puts "userRole" into
// c.Locals.
func RequireRole(roles ...models.AppRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userRole, ok := c.Locals(LocalUserRole).(string)
		if !ok || userRole == "" {
			// Auth wasn't applied or failed silently. 403, not 401: the caller may well
			// be authenticated.
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "forbidden",
			})
		}

		if slices.Contains(roles, models.AppRole(userRole)) {
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "insufficient permissions",
		})
	}
}
