package handlers

import (
	"strconv"

	"sparklean/internal/app"
	orderController "sparklean/internal/controllers/orders"
	"sparklean/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	Handler
	orderController orderController.OrderControllerInterface
}

func NewOrderHandler(app app.App, router fiber.Router) *OrderHandler {
	log := logger.New("handlers").File("order_handler")
	return &OrderHandler{
		orderController: app.Controllers.Order,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *OrderHandler) Register() {
	orders := h.router.Group("/orders")
	orders.Get("", h.list)
	orders.Post("/:id/admin-complete", h.middleware.RequireAdmin(), h.complete)
	orders.Post("/:id/admin-revise", h.middleware.RequireAdmin(), h.revise)
	orders.Post("/:id/client-action", h.clientAction)
	orders.Get("/:id/messages", h.messages)
	orders.Post("/:id/messages", h.addMessage)

	h.router.Post("/clients/:clientId/requests/:requestId/create-order", h.createFromRequest)
}

var orderErrorStatuses = map[error]int{
	orderController.ErrValidation: fiber.StatusBadRequest,
	orderController.ErrState:      fiber.StatusBadRequest,
	orderController.ErrNotFound:   fiber.StatusNotFound,
}

func (h *OrderHandler) createFromRequest(c *fiber.Ctx) error {
	clientID, err := strconv.Atoi(c.Params("clientId"))
	if err != nil || clientID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client ID",
		})
	}

	requestID, err := strconv.Atoi(c.Params("requestId"))
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	result, err := h.orderController.CreateFromRequest(c.UserContext(), clientID, requestID)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to create order")
	}

	status := fiber.StatusOK
	if result.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}

func (h *OrderHandler) list(c *fiber.Ctx) error {
	clientID, err := optionalClientID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client_id",
		})
	}

	if clientID == nil && !h.middleware.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	orders, err := h.orderController.List(c.UserContext(), clientID)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to list orders")
	}

	return c.JSON(fiber.Map{"orders": orders})
}

func (h *OrderHandler) complete(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil
	}

	var req orderController.CompleteOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	order, err := h.orderController.Complete(c.UserContext(), orderID, req)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to complete order")
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) revise(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil
	}

	var req orderController.ReviseOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	order, err := h.orderController.Revise(c.UserContext(), orderID, req)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to revise order")
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) clientAction(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil
	}

	var req orderController.OrderClientActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	order, err := h.orderController.ClientAction(c.UserContext(), orderID, req)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to apply action")
	}

	return c.JSON(fiber.Map{"order": order})
}

func (h *OrderHandler) messages(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil
	}

	messages, err := h.orderController.Messages(c.UserContext(), orderID)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to list messages")
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func (h *OrderHandler) addMessage(c *fiber.Ctx) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil
	}

	var req orderController.AddOrderMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	message, err := h.orderController.AddMessage(c.UserContext(), orderID, req)
	if err != nil {
		return respondError(c, err, orderErrorStatuses, "Failed to add message")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

// orderIDParam writes the 400 response itself when the ID is malformed
func orderIDParam(c *fiber.Ctx) (int, bool) {
	orderID, err := strconv.Atoi(c.Params("id"))
	if err != nil || orderID <= 0 {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid order ID",
		})
		return 0, false
	}
	return orderID, true
}
