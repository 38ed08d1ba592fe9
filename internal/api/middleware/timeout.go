package middleware

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TimeoutConfig returns timeout middleware configuration
func TimeoutConfig(timeout time.Duration) echo.MiddlewareFunc {
	return middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: timeout,
	})
}

// SelectiveTimeoutConfig applies a longer timeout to scrape endpoints,
// which walk several pages with politeness delays, and the default timeout
// everywhere else.
func SelectiveTimeoutConfig(defaultTimeout, scrapeTimeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		short := middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: defaultTimeout})(next)
		long := middleware.TimeoutWithConfig(middleware.TimeoutConfig{Timeout: scrapeTimeout})(next)

		return func(c echo.Context) error {
			if strings.HasPrefix(c.Path(), "/api/v1/listings") {
				return long(c)
			}
			return short(c)
		}
	}
}
