package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medassist/backend/internal/medical"
	"github.com/medassist/backend/internal/storage/sqlite"
	"github.com/medassist/backend/pkg/logger"
)

const searchDisclaimer = "This information is for educational purposes only. Consult healthcare professionals for medical advice."

type MedicalHandler struct {
	engine *medical.Engine
	db     *sqlite.Client
}

func NewMedicalHandler(engine *medical.Engine, db *sqlite.Client) *MedicalHandler {
	return &MedicalHandler{
		engine: engine,
		db:     db,
	}
}

func (h *MedicalHandler) CreateSession(c *fiber.Ctx) error {
	sessionType := c.Query("session_type", "general")

	sessionID, err := h.engine.CreateSession(c.Context(), sessionType)
	if err != nil {
		logger.Error("Failed to create session", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	return c.JSON(fiber.Map{
		"session_id":   sessionID,
		"session_type": sessionType,
		"created_at":   time.Now().Format(time.RFC3339),
	})
}

func (h *MedicalHandler) ProcessQuery(c *fiber.Ctx) error {
	var req struct {
		Query     string `json:"query"`
		SessionID string `json:"session_id"`
		QueryType string `json:"query_type"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	if req.QueryType == "" {
		req.QueryType = medical.QueryTypeGeneral
	}

	sessionID := req.SessionID
	if sessionID == "" {
		var err error
		sessionID, err = h.engine.CreateSession(c.Context(), req.QueryType)
		if err != nil {
			logger.Error("Failed to create session for query", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to process medical query",
			})
		}
	}

	// Degraded gateways still answer with status 200; the response body carries
	// the fallback text and confidence 0.
	resp := h.engine.ProcessQuery(c.Context(), sessionID, req.Query, req.QueryType)
	return c.JSON(resp)
}

func (h *MedicalHandler) SessionHistory(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	history, err := h.engine.History(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, sqlite.ErrSessionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}
		logger.Error("Failed to get session history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve session history",
		})
	}

	return c.JSON(history)
}

func (h *MedicalHandler) SearchConditions(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Search query 'q' is required",
		})
	}

	severity := c.Query("severity")
	limit := c.QueryInt("limit", 10)

	conditions, err := h.db.SearchConditions(c.Context(), q, severity, limit)
	if err != nil {
		logger.Error("Failed to search conditions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search medical conditions",
		})
	}

	results := make([]fiber.Map, 0, len(conditions))
	for _, cond := range conditions {
		results = append(results, fiber.Map{
			"id":          cond.ID,
			"name":        cond.Name,
			"description": cond.Description,
			"severity":    cond.Severity,
		})
	}

	return c.JSON(fiber.Map{
		"results":    results,
		"total":      len(results),
		"query":      q,
		"disclaimer": searchDisclaimer,
	})
}
