package handler

import (
	"github.com/gofiber/fiber/v3"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthHandler reports liveness and index size.
type HealthHandler struct {
	appName   string
	assistant Assistant
}

func NewHealthHandler(appName string, assistant Assistant) *HealthHandler {
	return &HealthHandler{appName: appName, assistant: assistant}
}

func (h *HealthHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	docs, chunks, err := h.assistant.Stats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"app":    h.appName,
			"error":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"app":     h.appName,
		"version": Version,
		"docs":    docs,
		"chunks":  chunks,
	})
}
