package middleware

import (
	"strings"

	"sparklean/internal/services"

	"github.com/gofiber/fiber/v2"
)

const adminSessionLocalKey = "adminSession"

// RequireAdmin validates the bearer token and checks that its session is
// still live before letting the request through.
func (m *Middleware) RequireAdmin() fiber.Handler {
	log := m.log.Function("RequireAdmin")

	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			log.Info("missing admin bearer token", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		session, err := m.sessionService.Validate(c.UserContext(), token)
		if err != nil {
			log.Info("admin session rejected", "path", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals(adminSessionLocalKey, session)
		return c.Next()
	}
}

// IsAdmin reports whether the request carries a live admin session.
// Used by routes that are only admin-scoped for some query shapes.
func (m *Middleware) IsAdmin(c *fiber.Ctx) bool {
	token := bearerToken(c)
	if token == "" {
		return false
	}

	session, err := m.sessionService.Validate(c.UserContext(), token)
	if err != nil {
		return false
	}

	c.Locals(adminSessionLocalKey, session)
	return true
}

// GetAdminSession retrieves the validated admin session from Fiber context
func GetAdminSession(c *fiber.Ctx) *services.AdminSession {
	if session, ok := c.Locals(adminSessionLocalKey).(*services.AdminSession); ok {
		return session
	}
	return nil
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}
