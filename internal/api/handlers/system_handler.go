package handlers

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/medassist/backend/internal/llm"
	"github.com/medassist/backend/internal/storage/sqlite"
	"github.com/medassist/backend/pkg/logger"
)

type SystemHandler struct {
	db        *sqlite.Client
	llm       *llm.Client
	backupDir string
}

func NewSystemHandler(db *sqlite.Client, llmClient *llm.Client, backupDir string) *SystemHandler {
	return &SystemHandler{
		db:        db,
		llm:       llmClient,
		backupDir: backupDir,
	}
}

// Health reports component status. A degraded component does not change the
// HTTP status code; callers inspect the body.
func (h *SystemHandler) Health(c *fiber.Ctx) error {
	status := "healthy"

	database := "connected"
	if err := h.db.Ping(c.Context()); err != nil {
		database = "disconnected"
		status = "degraded"
	}

	aiService := "ready"
	if !h.llm.IsReady() {
		aiService = "unavailable"
		status = "degraded"
	}

	return c.JSON(fiber.Map{
		"status":     status,
		"database":   database,
		"ai_service": aiService,
		"timestamp":  time.Now().Format(time.RFC3339),
	})
}

func (h *SystemHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.db.Stats(c.Context())
	if err != nil {
		logger.Error("Failed to collect database stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve system statistics",
		})
	}

	return c.JSON(fiber.Map{
		"database_stats": fiber.Map{
			"sessions":           stats.Sessions,
			"conversations":      stats.Turns,
			"medical_conditions": stats.Conditions,
			"drug_interactions":  stats.Interactions,
			"medical_terms":      stats.Terms,
			"database_size":      stats.DatabaseSize,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *SystemHandler) Backup(c *fiber.Ctx) error {
	var req struct {
		BackupName string `json:"backup_name"`
	}
	// Body is optional; an empty or malformed body falls back to a generated name.
	_ = c.BodyParser(&req)

	// Strip any directory component so the file cannot land outside backupDir.
	name := filepath.Base(req.BackupName)
	if name == "." || name == ".." || name == string(filepath.Separator) || req.BackupName == "" {
		name = fmt.Sprintf("medical_assistant_backup_%s.db", time.Now().Format("20060102_150405"))
	}

	path := filepath.Join(h.backupDir, name)
	if err := h.db.Backup(c.Context(), path); err != nil {
		logger.Error("Database backup failed", zap.String("path", path), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Backup failed",
		})
	}

	logger.Info("Database backup created", zap.String("path", path))
	return c.JSON(fiber.Map{
		"success":     true,
		"backup_name": name,
		"created_at":  time.Now().Format(time.RFC3339),
	})
}
