package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"marktscan/internal/background"
	"marktscan/internal/scraper/workers"
	"marktscan/pkg/models"
)

var startTime = time.Now()

const serviceVersion = "1.0.0"

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	}

	return c.JSON(http.StatusOK, response)
}

// ReadinessHandler handles readiness probe requests
func ReadinessHandler(poolManager *workers.PoolManager, orchestrator *background.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"api": "ok",
		}
		ready := true

		if poolManager.IsHealthy() {
			checks["workers"] = "ok"
		} else {
			checks["workers"] = "unavailable"
			ready = false
		}

		if orchestrator.IsHealthy() {
			checks["jobs"] = "ok"
		} else {
			checks["jobs"] = "unavailable"
			ready = false
		}

		status := "ready"
		httpStatus := http.StatusOK
		if !ready {
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		}

		return c.JSON(httpStatus, models.HealthResponse{
			Status:    status,
			Timestamp: time.Now(),
			Version:   serviceVersion,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	response := models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Uptime:    time.Since(startTime),
	}

	return c.JSON(http.StatusOK, response)
}

// StatusHandler provides detailed service status
func StatusHandler(poolManager *workers.PoolManager, orchestrator *background.Orchestrator) echo.HandlerFunc {
	return func(c echo.Context) error {
		checks := map[string]string{
			"api":     "operational",
			"workers": "operational",
			"jobs":    "operational",
		}

		if !poolManager.IsHealthy() {
			checks["workers"] = "degraded"
		}
		if !orchestrator.IsHealthy() {
			checks["jobs"] = "degraded"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "operational",
			Timestamp: time.Now(),
			Version:   serviceVersion,
			Uptime:    time.Since(startTime),
			Checks:    checks,
		})
	}
}
