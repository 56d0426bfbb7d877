package handlers

import (
	"mime/multipart"
	"strconv"
	"time"

	"sparklean/internal/app"
	requestController "sparklean/internal/controllers/requests"
	"sparklean/internal/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type RequestHandler struct {
	Handler
	requestController requestController.RequestControllerInterface
}

func NewRequestHandler(app app.App, router fiber.Router) *RequestHandler {
	log := logger.New("handlers").File("request_handler")
	return &RequestHandler{
		requestController: app.Controllers.Request,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *RequestHandler) Register() {
	requests := h.router.Group("/requests")
	requests.Post("", h.create)
	requests.Get("", h.list)
	requests.Get("/:id/messages", h.messages)
	requests.Post("/:id/client", h.clientAction)
	requests.Post("/:id/admin", h.middleware.RequireAdmin(), h.adminAction)
}

var requestErrorStatuses = map[error]int{
	requestController.ErrValidation: fiber.StatusBadRequest,
	requestController.ErrState:      fiber.StatusBadRequest,
	requestController.ErrNotFound:   fiber.StatusNotFound,
}

// create accepts a multipart form: scalar fields plus up to five files
// under the photos key
func (h *RequestHandler) create(c *fiber.Ctx) error {
	req, err := parseCreateRequestForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	var photos []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		photos = form.File["photos"]
	}

	result, err := h.requestController.Create(c.UserContext(), *req, photos)
	if err != nil {
		return respondError(c, err, requestErrorStatuses, "Failed to create request")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *RequestHandler) list(c *fiber.Ctx) error {
	clientID, err := optionalClientID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid client_id",
		})
	}

	// Without a client_id the listing spans all clients, which is admin
	// territory
	if clientID == nil && !h.middleware.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	requests, err := h.requestController.List(c.UserContext(), clientID)
	if err != nil {
		return respondError(c, err, requestErrorStatuses, "Failed to list requests")
	}

	return c.JSON(fiber.Map{"requests": requests})
}

func (h *RequestHandler) adminAction(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("id"))
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	var req requestController.AdminActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.requestController.AdminAction(c.UserContext(), requestID, req)
	if err != nil {
		return respondError(c, err, requestErrorStatuses, "Failed to apply action")
	}

	return c.JSON(result)
}

func (h *RequestHandler) clientAction(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("id"))
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	var req requestController.ClientActionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.requestController.ClientAction(c.UserContext(), requestID, req)
	if err != nil {
		return respondError(c, err, requestErrorStatuses, "Failed to apply action")
	}

	return c.JSON(result)
}

func (h *RequestHandler) messages(c *fiber.Ctx) error {
	requestID, err := strconv.Atoi(c.Params("id"))
	if err != nil || requestID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request ID",
		})
	}

	messages, err := h.requestController.Messages(c.UserContext(), requestID)
	if err != nil {
		return respondError(c, err, requestErrorStatuses, "Failed to list messages")
	}

	return c.JSON(fiber.Map{"messages": messages})
}

func parseCreateRequestForm(c *fiber.Ctx) (*requestController.CreateRequestRequest, error) {
	clientID, err := strconv.Atoi(c.FormValue("clientId"))
	if err != nil || clientID <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "clientId is required")
	}

	req := &requestController.CreateRequestRequest{
		ClientID:       clientID,
		ServiceAddress: c.FormValue("serviceAddress"),
		CleaningType:   c.FormValue("cleaningType"),
	}

	if rooms := c.FormValue("rooms"); rooms != "" {
		n, err := strconv.Atoi(rooms)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "rooms must be a number")
		}
		req.Rooms = n
	}

	if preferredAt := c.FormValue("preferredAt"); preferredAt != "" {
		t, err := time.Parse(time.RFC3339, preferredAt)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "preferredAt must be RFC3339")
		}
		req.PreferredAt = &t
	}

	if budget := c.FormValue("budget"); budget != "" {
		d, err := decimal.NewFromString(budget)
		if err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "budget must be a number")
		}
		req.Budget = &d
	}

	if notes := c.FormValue("notes"); notes != "" {
		req.Notes = &notes
	}

	return req, nil
}

func optionalClientID(c *fiber.Ctx) (*int, error) {
	raw := c.Query("client_id")
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid client_id")
	}
	return &id, nil
}
