package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/adapters"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/config"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/database"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/dedup"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/enrich"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/handlers"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/jobs"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/logger"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/registry"
	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/routes"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to PostgreSQL
	db, err := database.Connect(&cfg.Database, logger.Named("database"))
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger.Named("database")); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, logger.Named("migrate")); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Load the source catalog
	reg, err := registry.Load(cfg.Ingest.SourcesFile)
	if err != nil {
		logger.Fatal("Failed to load source catalog", zap.Error(err))
	}

	// Wire the ingestion pipeline
	engine := dedup.NewEngine(dedup.NewGormGateway(db), logger.Named("dedup"))
	httpClient := adapters.NewHTTPClient(cfg.Ingest.FetchTimeout, cfg.Ingest.UserAgent)
	adapterLogger := logger.Named("adapters")
	orch := jobs.NewOrchestrator(
		jobs.NewStore(),
		reg,
		engine,
		func(tier registry.Tier) (adapters.Adapter, error) {
			return adapters.ForTier(tier, httpClient, adapterLogger)
		},
		enrich.NoopEnricher{},
		enrich.NewCachedGeocoder(enrich.NoopGeocoder{}),
		enrich.NoopImageResolver{},
		cfg.Ingest,
		logger.Named("jobs"),
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Agenda Ingest Service",
		ServerHeader: "Fiber",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	routes.SetupRoutes(app,
		handlers.NewJobsHandler(orch, logger.Named("handlers.jobs")),
		handlers.NewSourcesHandler(reg),
		handlers.NewHealthHandler(db),
	)

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
			zap.Int("sources", len(reg.List(registry.Filter{}))),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
