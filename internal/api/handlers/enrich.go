package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marktscan/internal/background"
	"marktscan/internal/logging"
	"marktscan/pkg/models"
	"marktscan/pkg/utils"
)

// EnrichListingsHandler accepts a batch of listings for asynchronous price
// enrichment. The job id comes back immediately; results are polled via the
// jobs endpoint.
func EnrichListingsHandler(orchestrator *background.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		var req models.EnrichListingsRequest
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

		jobID, err := orchestrator.SubmitEnrichment(c.Request().Context(), &req)
		if err != nil {
			logger.Error("Failed to submit enrichment job", map[string]interface{}{
				"error": err.Error(),
			})
			return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error:     "job_submission_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		logger.Info("Enrichment job submitted", map[string]interface{}{
			"job_id": jobID,
			"items":  len(req.Items),
		})

		return c.JSON(http.StatusAccepted, models.CreateAsyncJobResponse(jobID))
	}
}
