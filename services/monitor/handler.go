package monitor

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("[monitor_handler] invalid monitor service")
	}

	return &Handler{service: service}, nil
}

func (h *Handler) SetupRoutes(router fiber.Router) {
	router.Get("/monitor/status", h.StatusHandler)
}

func (h *Handler) StatusHandler(c *fiber.Ctx) error {
	status, err := h.service.Status()
	if err != nil {
		if errors.Is(err, ErrNoSession) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(status)
}
