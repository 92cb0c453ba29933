package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/arturoeanton/casestudy-assistant/internal/domain"
	"github.com/arturoeanton/casestudy-assistant/internal/port"
)

// Assistant is the question answering surface exposed over HTTP and MCP.
type Assistant interface {
	Ask(ctx context.Context, req domain.AskRequest) (*domain.AskResponse, error)
	Catalog(ctx context.Context) (domain.IndexMeta, []domain.DocSummary, error)
	Stats(ctx context.Context) (docs, chunks int, err error)
}

// AskHandler handles question answering endpoints.
type AskHandler struct {
	assistant Assistant
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(assistant Assistant) *AskHandler {
	return &AskHandler{assistant: assistant}
}

// Register sets up ask routes.
func (h *AskHandler) Register(router fiber.Router) {
	router.Post("/ask", h.Ask)
}

// AskBody is the JSON body of an ask request.
type AskBody struct {
	Question string   `json:"question"`
	Filters  []string `json:"filters,omitempty"`
	Mode     string   `json:"mode,omitempty"`
}

// ToRequest validates the body and converts it to a domain request.
func (b AskBody) ToRequest() (domain.AskRequest, error) {
	filters, err := port.ParseThemes(b.Filters)
	if err != nil {
		return domain.AskRequest{}, err
	}
	mode, err := port.ParseMode(b.Mode)
	if err != nil {
		return domain.AskRequest{}, err
	}
	return domain.AskRequest{Question: b.Question, Filters: filters, Mode: mode}, nil
}

// Ask answers a question from the indexed case studies.
func (h *AskHandler) Ask(c fiber.Ctx) error {
	var body AskBody
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	req, err := body.ToRequest()
	if err != nil {
		return errorResponse(c, err)
	}

	resp, err := h.assistant.Ask(c.Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(resp)
}

// errorResponse maps validation errors to 400 and everything else to 500.
func errorResponse(c fiber.Ctx, err error) error {
	if port.IsValidation(err) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if !errors.Is(err, context.Canceled) {
		slog.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}
