package main

import (
	"os"
	"os/signal"
	"syscall"

	"tikalinvest/internal/adapters/http/middleware"
	"tikalinvest/internal/adapters/http/routes"
	"tikalinvest/internal/adapters/persistence/models"
	"tikalinvest/internal/adapters/persistence/repositories"
	"tikalinvest/internal/config"
	"tikalinvest/internal/core/services"
	"tikalinvest/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"

	_ "tikalinvest/docs" // Swagger docs
)

// @title TikalInvest API
// @version 1.0
// @description Retail stock trading: market data, orders, portfolio, wallet and reports.

// @contact.name API Support
// @contact.email support@tikalinvest.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)
	log := logger.Component("server")

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer config.CloseDatabase()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to auto migrate")
	}
	log.Info().Msg("database migration completed")

	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Warn().Err(err).Msg("failed to seed data")
	}

	// Scheduled jobs: price ticks, close roll, token cleanup, report worker
	if cfg.Jobs.Enabled {
		repos := repositories.New(db)
		reports := services.NewReportService(repos, services.NewPortfolioService(repos))
		cronService := services.NewCronService(repos, reports, cfg.Jobs)
		if err := cronService.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start scheduled jobs")
		}
		defer cronService.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      "TikalInvest API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	middleware.Setup(app, cfg)
	routes.Setup(app, db, cfg)

	go gracefulShutdown(app)

	log.Info().Str("port", cfg.Port).Str("mode", cfg.AppMode).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
	}
}

// gracefulShutdown stops accepting requests on SIGINT or SIGTERM. Listen
// then returns and main's deferred cleanup runs.
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log := logger.Component("server")
	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("server stopped gracefully")
}
