package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"grantdesk/internal/config"
	"grantdesk/internal/database"
	"grantdesk/internal/idempotency"
	"grantdesk/internal/logger"
	"grantdesk/internal/mailer"
	"grantdesk/internal/policy"
	"grantdesk/internal/server"
	"grantdesk/internal/validator"
)

// @title           Grantdesk API
// @version         1.0
// @description     Grantdesk tracks research project budgets: allocations, budget requests, transfers and fiscal year-end archival.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer dbManager.Close()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	table, err := policy.LoadFile(appConfig.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load access policy: %w", err)
	}

	validator.Register()

	opts := server.Options{
		DB:     dbManager.DB(),
		Config: appConfig,
		Policy: table,
		Mailer: mailer.NewLogMailer(logger.Named("mailer")),
	}

	if appConfig.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := idempotency.NewClient(ctx, appConfig.RedisURL)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		opts.Idempotency = idempotency.NewRedisStore(client)
		log.Info("Idempotency-Key replay enabled")
	}

	if appConfig.LedgerAllowOverrun {
		log.Warn("LEDGER_ALLOW_OVERRUN is set; expenses may exceed allocations")
	}

	router := server.New(opts)

	log.Infof("Starting Grantdesk server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
