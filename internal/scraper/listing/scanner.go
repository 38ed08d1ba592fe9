package listing

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
	"marktscan/pkg/models"
)

// primaryRegionSelector scopes link discovery to the page's main content
// region so navigation and footer links never masquerade as listings.
const primaryRegionSelector = "main, [role='main']"

// Scanner extracts listing links and inline card fields from a single
// result page.
type Scanner struct {
	fetcher scraper.PageFetcher
	timeout time.Duration
	logger  types.Logger
}

// NewScanner creates a scanner over the given page fetcher
func NewScanner(fetcher scraper.PageFetcher, timeout time.Duration) *Scanner {
	return &Scanner{
		fetcher: fetcher,
		timeout: timeout,
		logger:  logging.GetGlobalLogger(),
	}
}

// ScanPage fetches one result page and returns its deduplicated listing
// stubs plus the best-effort expected total. A page without any listing
// links is a valid empty result, not an error; fetch failures propagate
// with their FetchError typing intact.
func (s *Scanner) ScanPage(ctx context.Context, pageURL string) (*models.PageResult, error) {
	doc, err := s.fetcher.FetchPage(ctx, pageURL, s.timeout)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, scraper.NewFetchError(pageURL, err)
	}

	links := s.resolveLinkScope(doc)

	seen := make(map[string]bool)
	var items []*models.ListingRecord

	links.Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		absolute := resolveURL(base, href)
		if absolute == "" || !isListingLink(absolute) {
			return
		}

		id, ok := ExtractID(absolute)
		if !ok || seen[id] {
			// First occurrence wins within a page.
			return
		}
		seen[id] = true

		fields := ExtractCardFields(link)
		title := fields.Title
		if title == "" {
			title = "Listing " + id
		}

		record := &models.ListingRecord{
			ID:          id,
			URL:         absolute,
			Title:       title,
			PriceSource: models.PriceSourceMissing,
			Country:     fields.Country,
			IsSponsored: fields.IsSponsored,
		}
		if fields.Price != nil {
			record.SetPrice(*fields.Price, fields.PriceSource)
		}

		items = append(items, record)
	})

	expected := ReadExpectedCount(doc)

	s.logger.Debug("Result page scanned", map[string]interface{}{
		"url":            pageURL,
		"items":          len(items),
		"expected_count": expected,
	})

	return &models.PageResult{ExpectedCount: expected, Items: items}, nil
}

// resolveLinkScope prefers links inside the primary content region. When
// that selector yields nothing it falls back to page-wide links, but keeps
// only the ones that still resolve into the primary region whenever any do.
func (s *Scanner) resolveLinkScope(doc *goquery.Document) *goquery.Selection {
	scoped := doc.Find(primaryRegionSelector).Find("a[href]")
	if scoped.Length() > 0 {
		return scoped
	}

	all := doc.Find("a[href]")
	inMain := all.FilterFunction(func(_ int, link *goquery.Selection) bool {
		return link.Closest(primaryRegionSelector).Length() > 0
	})
	if inMain.Length() > 0 {
		return inMain
	}
	return all
}

// isListingLink checks the listing-URL shape: carries the id marker and
// ends in the detail-page suffix.
func isListingLink(absolute string) bool {
	parsed, err := url.Parse(absolute)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)
	return strings.Contains(path, "--id") && strings.HasSuffix(path, ".htm")
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
