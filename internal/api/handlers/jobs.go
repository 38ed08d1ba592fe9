package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marktscan/internal/background"
	"marktscan/internal/logging"
	"marktscan/pkg/models"
	"marktscan/pkg/utils"
)

// JobStatusHandler reports the current state of a background enrichment
// job. Expired and unknown ids both answer 404.
func JobStatusHandler(orchestrator *background.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.LogWithRequestID(requestID)

		jobID := c.Param("id")
		if jobID == "" {
			return c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:     "invalid_request",
				Message:   "Job id is required",
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		job, err := orchestrator.GetJob(c.Request().Context(), jobID)
		if err != nil {
			if errors.Is(err, background.ErrJobNotFound) {
				return c.JSON(http.StatusNotFound, models.ErrorResponse{
					Error:     "job_not_found",
					Message:   "No job exists with the given id, or its record has expired",
					RequestID: requestID,
					Timestamp: time.Now(),
				})
			}

			logger.Error("Failed to load job state", map[string]interface{}{
				"job_id": jobID,
				"error":  err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:     "job_lookup_failed",
				Message:   err.Error(),
				RequestID: requestID,
				Timestamp: time.Now(),
			})
		}

		return c.JSON(http.StatusOK, models.JobStatusResponse{
			JobID:       job.ID,
			Status:      job.Status,
			Total:       job.Total,
			Processed:   job.Processed,
			Results:     job.Results,
			Error:       job.Error,
			CreatedAt:   job.CreatedAt,
			CompletedAt: job.CompletedAt,
		})
	}
}
