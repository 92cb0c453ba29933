package handler

import (
	"github.com/gofiber/fiber/v3"
)

// DocsHandler serves the case study catalog.
type DocsHandler struct {
	assistant Assistant
}

// NewDocsHandler creates a new catalog handler.
func NewDocsHandler(assistant Assistant) *DocsHandler {
	return &DocsHandler{assistant: assistant}
}

// Register sets up catalog routes.
func (h *DocsHandler) Register(router fiber.Router) {
	router.Get("/docs", h.List)
}

// List returns the index metadata and every document without its chunks.
func (h *DocsHandler) List(c fiber.Ctx) error {
	meta, docs, err := h.assistant.Catalog(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{
		"meta": meta,
		"docs": docs,
	})
}
