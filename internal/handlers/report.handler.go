package handlers

import (
	"sparklean/internal/app"
	reportController "sparklean/internal/controllers/reports"
	"sparklean/internal/logger"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	Handler
	reportController reportController.ReportControllerInterface
}

func NewReportHandler(app app.App, router fiber.Router) *ReportHandler {
	log := logger.New("handlers").File("report_handler")
	return &ReportHandler{
		reportController: app.Controllers.Report,
		Handler: Handler{
			log:        log,
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReportHandler) Register() {
	admin := h.router.Group("/admin", h.middleware.RequireAdmin())
	admin.Get("/report", h.run)
}

var reportErrorStatuses = map[error]int{
	reportController.ErrValidation: fiber.StatusBadRequest,
}

func (h *ReportHandler) run(c *fiber.Ctx) error {
	result, err := h.reportController.Run(c.UserContext(), c.Query("type"), c.Query("month"))
	if err != nil {
		return respondError(c, err, reportErrorStatuses, "Failed to run report")
	}

	return c.JSON(result)
}
