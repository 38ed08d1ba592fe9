package headed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
)

// Fetcher loads pages through a pooled headless browser and hands back
// parsed documents. Implements scraper.PageFetcher.
type Fetcher struct {
	manager *BrowserManager
	logger  types.Logger
}

// NewFetcher creates a browser-backed page fetcher
func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		manager: NewBrowserManager(cfg),
		logger:  logging.GetGlobalLogger(),
	}
}

// FetchPage navigates to the URL, waits for the page to load and returns
// the rendered DOM. Deadline overruns come back as timeout-typed errors so
// callers can distinguish them from hard failures.
func (f *Fetcher) FetchPage(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error) {
	instance, err := f.manager.GetBrowser(ctx)
	if err != nil {
		return nil, scraper.NewFetchError(url, err)
	}
	defer instance.Release()

	if err := instance.Navigate(ctx, url, timeout); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, scraper.NewTimeoutError(url, err)
		}
		return nil, scraper.NewFetchError(url, err)
	}

	instance.DismissConsentDialog()

	html, err := instance.GetPageHTML()
	if err != nil {
		return nil, scraper.NewFetchError(url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, scraper.NewFetchError(url, err)
	}

	f.logger.Debug("Page fetched", map[string]interface{}{
		"url":    url,
		"engine": "headed",
	})

	return doc, nil
}

// Cleanup shuts the browser pool down
func (f *Fetcher) Cleanup() {
	f.manager.Cleanup()
}

// IsHealthy reports whether the browser pool can serve fetches
func (f *Fetcher) IsHealthy() bool {
	return f.manager.IsHealthy()
}
