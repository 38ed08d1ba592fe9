package firecrawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mendableai/firecrawl-go"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
)

// Fetcher loads pages through the Firecrawl API. Useful when a target blocks
// direct browser traffic; the rendered HTML comes back over HTTPS instead.
// Implements scraper.PageFetcher.
type Fetcher struct {
	config *config.Config
	app    *firecrawl.FirecrawlApp
	logger types.Logger
}

// NewFetcher creates a Firecrawl-backed page fetcher. Returns nil when the
// API client cannot be initialized.
func NewFetcher(cfg *config.Config) *Fetcher {
	logger := logging.GetGlobalLogger()

	app, err := firecrawl.NewFirecrawlApp(
		cfg.Firecrawl.APIKey,
		cfg.Firecrawl.APIURL,
	)
	if err != nil {
		logger.Error("Failed to initialize Firecrawl", map[string]interface{}{
			"error": err.Error(),
		})
		return nil
	}

	logger.Info("Firecrawl fetcher initialized", map[string]interface{}{
		"api_url": cfg.Firecrawl.APIURL,
	})

	return &Fetcher{
		config: cfg,
		app:    app,
		logger: logger,
	}
}

// FetchPage scrapes the URL via Firecrawl and parses the returned HTML.
// The SDK manages its own request deadlines, so the timeout here bounds the
// whole retry loop.
func (f *Fetcher) FetchPage(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error) {
	deadline := time.Now().Add(timeout)

	scrapeParams := &firecrawl.ScrapeParams{
		Formats: []string{"html"},
	}

	var result *firecrawl.FirecrawlDocument
	var err error

	for attempt := 1; attempt <= f.config.Firecrawl.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, scraper.NewFetchError(url, ctx.Err())
		}
		if time.Now().After(deadline) {
			return nil, scraper.NewTimeoutError(url, fmt.Errorf("firecrawl retry budget exhausted"))
		}

		result, err = f.app.ScrapeURL(url, scrapeParams)
		if err == nil {
			break
		}

		f.logger.Warn("Firecrawl scrape attempt failed", map[string]interface{}{
			"attempt": attempt,
			"url":     url,
			"error":   err.Error(),
		})

		if attempt < f.config.Firecrawl.MaxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	if err != nil {
		return nil, scraper.NewFetchError(url, fmt.Errorf("firecrawl scraping failed after %d attempts: %w", f.config.Firecrawl.MaxRetries, err))
	}
	if result == nil || result.HTML == "" {
		return nil, scraper.NewFetchError(url, fmt.Errorf("no HTML content in Firecrawl response"))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(result.HTML))
	if err != nil {
		return nil, scraper.NewFetchError(url, err)
	}

	f.logger.Debug("Page fetched", map[string]interface{}{
		"url":    url,
		"engine": "firecrawl",
	})

	return doc, nil
}

// Cleanup releases any resources used by the fetcher
func (f *Fetcher) Cleanup() {
	// The Firecrawl SDK holds no connections that need closing.
}

// IsHealthy checks if the fetcher is ready to serve requests
func (f *Fetcher) IsHealthy() bool {
	return f.app != nil && f.config.Firecrawl.APIKey != ""
}
