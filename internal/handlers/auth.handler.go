package handlers

import (
	"strings"

	"sparklean/internal/app"
	authController "sparklean/internal/controllers/auth"
	"sparklean/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	authController authController.AuthControllerInterface
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	log := logger.New("handlers").File("auth_handler")
	return &AuthHandler{
		authController: app.Controllers.Auth,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")
	auth.Post("/register-basic", h.registerBasic)
	auth.Post("/register", h.registerWithPayment)
	auth.Post("/login", h.login)

	admin := h.router.Group("/admin")
	admin.Post("/login", h.adminLogin)
	admin.Post("/logout", h.middleware.RequireAdmin(), h.adminLogout)
}

var authErrorStatuses = map[error]int{
	authController.ErrValidation: fiber.StatusBadRequest,
	authController.ErrAuth:       fiber.StatusUnauthorized,
	authController.ErrExternal:   fiber.StatusBadGateway,
}

func (h *AuthHandler) registerBasic(c *fiber.Ctx) error {
	var req authController.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.RegisterBasic(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, authErrorStatuses, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) registerWithPayment(c *fiber.Ctx) error {
	var req authController.RegisterWithPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.RegisterWithPayment(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, authErrorStatuses, "Registration failed")
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req authController.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, authErrorStatuses, "Login failed")
	}

	return c.JSON(result)
}

func (h *AuthHandler) adminLogin(c *fiber.Ctx) error {
	var req authController.AdminLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.authController.AdminLogin(c.UserContext(), req)
	if err != nil {
		return respondError(c, err, authErrorStatuses, "Login failed")
	}

	return c.JSON(result)
}

func (h *AuthHandler) adminLogout(c *fiber.Ctx) error {
	token := strings.TrimSpace(
		strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer "),
	)

	if err := h.authController.AdminLogout(c.UserContext(), token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Logout failed",
		})
	}

	return c.JSON(fiber.Map{"message": "Logged out"})
}
