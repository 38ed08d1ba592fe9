package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// PageFetcher fetches a URL and returns a parsed document ready for
// extraction. Implementations handle consent dialogs and rendering; callers
// only depend on the returned document and the typed error contract:
// deadline overruns surface as a FetchError with KindTimeout, everything
// else as KindFetch.
type PageFetcher interface {
	// FetchPage navigates to the URL and returns the rendered document.
	FetchPage(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error)

	// Cleanup releases any resources held by the fetcher
	Cleanup()

	// IsHealthy returns true if the fetcher is ready to serve requests
	IsHealthy() bool
}

// FetcherFactory creates page fetchers based on engine type
type FetcherFactory interface {
	// CreateFetcher returns the fetcher for the given engine name
	CreateFetcher(engine string) (PageFetcher, error)

	// GetSupportedEngines returns a list of supported engine types
	GetSupportedEngines() []string
}
