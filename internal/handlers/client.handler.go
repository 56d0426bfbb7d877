package handlers

import (
	"strconv"

	"sparklean/internal/app"
	clientController "sparklean/internal/controllers/clients"
	"sparklean/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type ClientHandler struct {
	Handler
	clientController clientController.ClientControllerInterface
}

func NewClientHandler(app app.App, router fiber.Router) *ClientHandler {
	log := logger.New("handlers").File("client_handler")
	return &ClientHandler{
		clientController: app.Controllers.Client,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ClientHandler) Register() {
	clients := h.router.Group("/clients")
	clients.Post("/:id/card", h.saveCard)
	clients.Get("", h.middleware.RequireAdmin(), h.listStats)

	admin := h.router.Group("/admin")
	admin.Get("/clients", h.middleware.RequireAdmin(), h.listStats)
}

var clientErrorStatuses = map[error]int{
	clientController.ErrValidation: fiber.StatusBadRequest,
	clientController.ErrNotFound:   fiber.StatusNotFound,
}

func (h *ClientHandler) saveCard(c *fiber.Ctx) error {
	clientID, err := strconv.Atoi(c.Params("id"))
	if err != nil || clientID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client ID",
		})
	}

	var req clientController.SaveCardRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.clientController.SaveCard(c.UserContext(), clientID, req)
	if err != nil {
		return respondError(c, err, clientErrorStatuses, "Failed to save card")
	}

	return c.JSON(result)
}

func (h *ClientHandler) listStats(c *fiber.Ctx) error {
	stats, err := h.clientController.ListStats(c.UserContext(), c.Query("q"))
	if err != nil {
		return respondError(c, err, clientErrorStatuses, "Failed to list clients")
	}

	return c.JSON(fiber.Map{"clients": stats})
}
