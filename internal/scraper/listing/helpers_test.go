package listing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"marktscan/internal/scraper"
)

// mustDoc parses inline HTML into a goquery document for extraction tests.
func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse test HTML: %v", err)
	}
	return doc
}

// fakeFetcher serves canned HTML keyed by URL. URLs mapped to an error
// value fail with that error; unmapped URLs fail with a generic fetch
// error.
type fakeFetcher struct {
	pages   map[string]string
	errs    map[string]error
	fetches int
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error) {
	f.fetches++
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	html, ok := f.pages[url]
	if !ok {
		return nil, scraper.NewFetchError(url, errors.New("no such page"))
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *fakeFetcher) Cleanup() {}

func (f *fakeFetcher) IsHealthy() bool { return true }
