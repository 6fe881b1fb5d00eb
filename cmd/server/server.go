package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"swiftask/services/replicate-tools/internal/infrastructure/config"
	"swiftask/services/replicate-tools/internal/infrastructure/logger"
	_ "swiftask/services/replicate-tools/internal/infrastructure/metrics" // Register Prometheus metrics
	replicateclient "swiftask/services/replicate-tools/internal/infrastructure/replicate"
	"swiftask/services/replicate-tools/internal/interfaces/httpserver"
)

type Application struct {
	httpServer *httpserver.HTTPServer
	replicate  *replicateclient.Client
}

func init() {
	// Initialize logger with default settings
	logger.Init("info", "json")
}

// @title Replicate Tools Service
// @version 1.0
// @description Model Context Protocol (MCP) tools service exposing the Replicate model catalog, predictions, and code generation as agent tools.
// @BasePath /
func (app *Application) Start(ctx context.Context) error {
	// Probe upstream connectivity; a failure is logged but not fatal so
	// the service can come up while Replicate is degraded.
	status := app.replicate.TestConnection(ctx)
	if status.Success {
		log.Info().
			Int("models_available", status.ModelsAvailable).
			Str("rate_limit_remaining", status.RateLimitRemaining).
			Msg("Replicate API reachable")
	} else {
		log.Warn().Str("message", status.Message).Msg("Replicate API connectivity check failed")
	}

	return app.httpServer.Run()
}

func main() {
	ctx := context.Background()

	loadEnvFiles()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Re-initialize logger with config settings
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("log_level", cfg.LogLevel).
		Str("toolset", cfg.Toolset).
		Msg("Starting Replicate Tools service")

	// Create application with dependency injection
	application, err := CreateApplication(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Start application
	log.Info().Str("address", fmt.Sprintf(":%s", cfg.HTTPPort)).Msg("Server listening")
	if err := application.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
