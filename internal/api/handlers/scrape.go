package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
	"marktscan/internal/scraper/listing"
	"marktscan/internal/scraper/workers"
	"marktscan/pkg/models"
	"marktscan/pkg/utils"
)

var validate = validator.New()

// ScrapeListingsHandler handles synchronous listing scrape requests using
// the worker pool.
func ScrapeListingsHandler(cfg *config.Config, poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.ScrapeListingsRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to bind request", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Invalid request format",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if err := validate.Struct(&req); err != nil {
			logger.Error("Request validation failed", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "validation_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Processing scrape request", map[string]interface{}{
			"url": req.URL,
		})

		ctx := c.Request().Context()
		result, err := poolManager.SubmitJob(ctx, &req)
		if err != nil {
			logger.Error("Failed to submit job to worker pool", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "job_submission_failed",
				Message:   fmt.Sprintf("Failed to submit scraping job: %v", err),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		if result.Error != nil {
			return scrapeErrorResponse(c, logger, requestID, result.Error)
		}

		engine := cfg.Scraper.DefaultEngine
		if req.Options != nil && req.Options.Engine != "" {
			engine = req.Options.Engine
		}

		response := models.ScrapeListingsResponse{
			Success:        true,
			Result:         result.Result,
			Cached:         result.Cached,
			ProcessingTime: time.Since(startTime),
			Engine:         engine,
			RequestID:      requestID,
		}

		logger.Info("Scrape request completed successfully", map[string]interface{}{
			"processing_time": time.Since(startTime).String(),
			"items":           result.Result.Count,
			"partial":         result.Result.Partial,
			"cached":          result.Cached,
			"engine":          engine,
		})

		return c.JSON(http.StatusOK, response)
	}
}

// scrapeErrorResponse maps pipeline failures onto HTTP responses. Count
// mismatches carry their diagnostic meta so clients can inspect the batch.
func scrapeErrorResponse(c echo.Context, logger types.Logger, requestID string, err error) error {
	logger.Error("Scraping job failed", map[string]interface{}{
		"error": err.Error(),
	})

	var inconsistent *listing.InconsistentCountError
	if errors.As(err, &inconsistent) {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:     "inconsistent_batch",
			Message:   inconsistent.Error(),
			Meta:      inconsistent.Meta(),
			RequestID: requestID,
			Timestamp: time.Now(),
		})
	}

	var fetchErr *scraper.FetchError
	if errors.As(err, &fetchErr) {
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:     "scraping_failed",
			Message:   fmt.Sprintf("Failed to scrape listings: %v", err),
			RequestID: requestID,
			Timestamp: time.Now(),
		})
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:     "scraping_failed",
		Message:   fmt.Sprintf("Failed to scrape listings: %v", err),
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}
