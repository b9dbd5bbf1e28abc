package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/ijuchazara/bitworks-message/internal/config"
	"github.com/ijuchazara/bitworks-message/internal/database"
	"github.com/ijuchazara/bitworks-message/internal/db"
	"github.com/ijuchazara/bitworks-message/internal/models"
	"github.com/ijuchazara/bitworks-message/internal/repository"
	"github.com/ijuchazara/bitworks-message/internal/routes"
	"github.com/ijuchazara/bitworks-message/pkg/debug"
)

func strPtr(s string) *string { return &s }

// defaultSettings are seeded at startup when missing. Operator edits are
// never overwritten.
var defaultSettings = []models.Setting{
	{Key: models.SettingAgentURL, Value: "", Description: strPtr("Webhook URL of the external AI agent")},
	{Key: models.SettingAnswerHostURL, Value: "http://localhost:8000", Description: strPtr("Base URL the agent uses to deliver answers")},
	{Key: "ai_role", Value: "You are a helpful customer service assistant.", Description: strPtr("Role instruction prepended to agent prompts")},
	{Key: "office_hours", Value: "09:00-18:00", Description: strPtr("Office hours shown to chat users")},
	{Key: models.SettingHistoryDays, Value: "30", Description: strPtr("Days of conversation history kept by the retention sweep")},
}

func main() {
	// Initialize debug package first with default settings
	debug.Reinitialize()

	// Load .env file; a missing file is fine when the environment already
	// carries the configuration.
	if err := godotenv.Load(); err != nil {
		debug.Warning("No .env file found, using environment variables: %v", err)

		requiredVars := []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"}
		missingVars := []string{}
		for _, v := range requiredVars {
			if os.Getenv(v) == "" {
				missingVars = append(missingVars, v)
			}
		}
		if len(missingVars) > 0 {
			debug.Error("Missing required environment variables: %v", missingVars)
			os.Exit(1)
		}
	} else {
		debug.Info("Successfully loaded .env file")
	}

	// Reinitialize debug package with environment variables
	debug.Reinitialize()
	debug.Info("Debug logging initialized with environment settings")

	appConfig := config.NewConfig()

	sqlDB, err := database.Connect()
	if err != nil {
		debug.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := database.RunMigrations(); err != nil {
		debug.Error("Failed to run migrations: %v", err)
		os.Exit(1)
	}

	dbWrapper := &db.DB{DB: sqlDB}

	// Seed default settings before anything reads them
	settingRepo := repository.NewSettingRepository(dbWrapper)
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := settingRepo.SeedDefaults(seedCtx, defaultSettings); err != nil {
		cancelSeed()
		debug.Error("Failed to seed default settings: %v", err)
		os.Exit(1)
	}
	cancelSeed()

	router := mux.NewRouter()
	retentionService := routes.SetupRoutes(router, dbWrapper)

	if err := retentionService.Start(appConfig.RetentionSchedule); err != nil {
		debug.Error("Failed to start retention scheduler: %v", err)
		os.Exit(1)
	}
	defer retentionService.Stop()

	server := &http.Server{
		Addr:         appConfig.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		debug.Info("Starting HTTP server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			debug.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	debug.Info("Shutdown signal received, stopping server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		debug.Error("Server shutdown error: %v", err)
	}
	debug.Info("Server stopped")
}
