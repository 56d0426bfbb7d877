package handlers

import (
	"errors"

	"sparklean/internal/app"
	"sparklean/internal/handlers/middleware"
	"sparklean/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	middleware middleware.Middleware
	log        logger.Logger
	router     fiber.Router
}

func Router(router fiber.Router, app *app.App) error {
	api := router.Group("/api")

	HealthHandler(api, app.Config)
	NewAuthHandler(*app, api).Register()
	NewClientHandler(*app, api).Register()
	NewRequestHandler(*app, api).Register()
	NewOrderHandler(*app, api).Register()
	NewReportHandler(*app, api).Register()

	// Stored request photos are served straight off disk
	router.Static("/uploads", app.Services.Storage.UploadDir())

	return nil
}

// respondError maps controller sentinel errors to HTTP statuses. Anything
// unmapped is a 500 with a generic message so internals never leak.
func respondError(c *fiber.Ctx, err error, statuses map[error]int, fallback string) error {
	for sentinel, status := range statuses {
		if errors.Is(err, sentinel) {
			return c.Status(status).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
	})
}
