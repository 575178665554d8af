package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/medassist/backend/internal/api/handlers"
	"github.com/medassist/backend/internal/cache/redis"
	"github.com/medassist/backend/internal/llm"
	"github.com/medassist/backend/internal/medical"
	"github.com/medassist/backend/internal/metrics"
	"github.com/medassist/backend/internal/middleware/security"
	"github.com/medassist/backend/internal/middleware/validation"
	"github.com/medassist/backend/internal/storage/sqlite"
	"github.com/medassist/backend/pkg/config"
	appLogger "github.com/medassist/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Medical Assistant API Server")

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	err = sqliteClient.Seed()
	if err != nil {
		appLogger.Fatal("Failed to seed knowledge base", zap.Error(err))
	}

	// The context cache is optional. Without Redis every query reads its
	// conversation context straight from SQLite.
	var contextCache medical.ContextCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSec)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without context cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			contextCache = redisClient
		}
	}

	llmClient := llm.NewClient(cfg.Ollama, cfg.Safety)

	initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := llmClient.Initialize(initCtx); err != nil {
		appLogger.Warn("AI service not available at startup, responses will be degraded", zap.Error(err))
	}
	cancel()

	engine := medical.NewEngine(sqliteClient, llmClient, contextCache, cfg.Safety)

	metrics.Init()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		IsDevelopment: cfg.Logging.Level == "debug",
	}))
	app.Use(validation.Middleware(validation.Config{
		MaxQueryLength: cfg.Safety.MaxQueryLength,
		Logger:         appLogger.GetLogger(),
	}))

	medicalHandler := handlers.NewMedicalHandler(engine, sqliteClient)
	aiHandler := handlers.NewAIHandler(llmClient)
	systemHandler := handlers.NewSystemHandler(sqliteClient, llmClient, cfg.SQLite.BackupDir)

	api := app.Group("/api")

	api.Post("/medical/session", medicalHandler.CreateSession)
	api.Post("/medical/query", medicalHandler.ProcessQuery)
	api.Get("/medical/session/:id/history", medicalHandler.SessionHistory)
	api.Get("/medical/conditions/search", medicalHandler.SearchConditions)

	api.Get("/ai/models", aiHandler.Models)
	api.Post("/ai/general", aiHandler.GeneralQuery)

	api.Get("/system/health", systemHandler.Health)
	api.Get("/system/stats", systemHandler.Stats)
	api.Post("/system/backup", systemHandler.Backup)

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
