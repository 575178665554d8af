package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/medassist/backend/internal/llm"
)

type AIHandler struct {
	llm *llm.Client
}

func NewAIHandler(llmClient *llm.Client) *AIHandler {
	return &AIHandler{llm: llmClient}
}

func (h *AIHandler) Models(c *fiber.Ctx) error {
	return c.JSON(h.llm.Info())
}

func (h *AIHandler) GeneralQuery(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter 'query' is required",
		})
	}

	if !h.llm.IsReady() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "AI service is not available",
		})
	}

	res := h.llm.GenerateGeneral(c.Context(), query, nil)
	return c.JSON(fiber.Map{
		"response":   res.Response,
		"confidence": res.Confidence,
		"model":      res.Model,
		"session_id": c.Query("session_id"),
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}
