package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"marktscan/internal/scraper"
)

// EngineStatusResponse reports the registered fetch engines and their health
type EngineStatusResponse struct {
	Status  string            `json:"status"`
	Engines map[string]string `json:"engines"`
	Default string            `json:"default"`
}

// EngineStatusHandler returns the health of every registered fetch engine
func EngineStatusHandler(factory scraper.FetcherFactory, defaultEngine string) echo.HandlerFunc {
	return func(c echo.Context) error {
		engines := make(map[string]string)
		overall := "ok"

		for _, name := range factory.GetSupportedEngines() {
			fetcher, err := factory.CreateFetcher(name)
			if err != nil {
				engines[name] = "unavailable"
				overall = "degraded"
				continue
			}
			if fetcher.IsHealthy() {
				engines[name] = "healthy"
			} else {
				engines[name] = "unhealthy"
				overall = "degraded"
			}
		}

		return c.JSON(http.StatusOK, EngineStatusResponse{
			Status:  overall,
			Engines: engines,
			Default: defaultEngine,
		})
	}
}
