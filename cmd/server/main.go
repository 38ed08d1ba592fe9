package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"marktscan/internal/api/routes"
	"marktscan/internal/background"
	"marktscan/internal/cache"
	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/scraper"
	"marktscan/internal/scraper/engines/firecrawl"
	"marktscan/internal/scraper/engines/headed"
	"marktscan/internal/scraper/pipeline"
	"marktscan/internal/scraper/workers"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()
	logger.Info("Starting Marktscan Listing Scraper")

	// Register fetch engines
	factory := scraper.NewFetcherFactory(cfg)

	headedFetcher := headed.NewFetcher(cfg)
	factory.Register("headed", headedFetcher)

	if firecrawlFetcher := firecrawl.NewFetcher(cfg); firecrawlFetcher != nil {
		factory.Register("firecrawl", firecrawlFetcher)
	} else {
		logger.Warn("Firecrawl engine unavailable, continuing without it")
	}

	// Result cache and scrape pipeline
	resultCache := cache.New(cfg)
	scrapePipeline := pipeline.New(cfg, factory, resultCache)

	// Worker pool for synchronous scrapes
	poolManager := workers.NewPoolManager(cfg, scrapePipeline.Run)
	if err := poolManager.Initialize(); err != nil {
		logger.Fatal("Failed to start worker pool", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer poolManager.Shutdown()

	// Background enrichment orchestrator
	jobStore := background.NewJobStore(cfg)
	orchestrator := background.NewOrchestrator(cfg, jobStore, factory)

	ctx := context.Background()
	if err := orchestrator.Start(ctx); err != nil {
		logger.Fatal("Failed to start orchestrator", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, cfg, poolManager, orchestrator, factory)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Info("Stopping enrichment orchestrator...")
		if err := orchestrator.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping orchestrator", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Stopping worker pool...")
		if err := poolManager.Shutdown(); err != nil {
			logger.Error("Error stopping worker pool", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Closing browser pool...")
		headedFetcher.Cleanup()
		resultCache.Stop()

		logger.Info("Stopping HTTP server...")
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down server", map[string]interface{}{
				"error": err.Error(),
			})
		}

		logger.Info("Server shutdown complete")
	}()

	// Start server
	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", map[string]interface{}{
		"address": address,
	})

	if err := e.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
