package routes

import (
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"marktscan/internal/api/handlers"
	"marktscan/internal/api/middleware"
	"marktscan/internal/background"
	"marktscan/internal/config"
	"marktscan/internal/scraper"
	"marktscan/internal/scraper/workers"
)

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, cfg *config.Config, poolManager *workers.PoolManager, orchestrator *background.Orchestrator, factory scraper.FetcherFactory) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Scrape endpoints walk multiple pages with delays; give them more room
	e.Use(middleware.SelectiveTimeoutConfig(cfg.Server.ReadTimeout, 5*time.Minute))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(poolManager, orchestrator))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/workers", handlers.WorkerHealthHandler(poolManager))
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(poolManager, orchestrator))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		listings := v1.Group("/listings")
		{
			listings.POST("/scrape", handlers.ScrapeListingsHandler(cfg, poolManager))
			listings.POST("/enrich", handlers.EnrichListingsHandler(orchestrator))
		}

		// Background job polling
		jobs := v1.Group("/jobs")
		{
			jobs.GET("/:id", handlers.JobStatusHandler(orchestrator))
		}

		// Worker monitoring routes
		workerGroup := v1.Group("/workers")
		{
			workerGroup.GET("/stats", handlers.WorkerStatsHandler(poolManager))
			workerGroup.GET("/status", handlers.DetailedWorkerStatusHandler(poolManager))
		}

		// Domain-specific routes
		domains := v1.Group("/domains")
		{
			domains.GET("/:domain/stats", handlers.DomainStatsHandler(poolManager))
		}

		// Fetch engine monitoring
		v1.GET("/engines", handlers.EngineStatusHandler(factory, cfg.Scraper.DefaultEngine))
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"service": "Marktscan Listing Scraper",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
