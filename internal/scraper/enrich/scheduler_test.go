package enrich

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/internal/config"
	"marktscan/internal/scraper"
	"marktscan/pkg/models"
)

// detailFetcher serves canned detail pages and records per-URL fetch counts
// plus the peak number of concurrent fetches.
type detailFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	errs     map[string]error
	counts   map[string]int
	delay    time.Duration
	inFlight int64
	peak     int64
}

func newDetailFetcher() *detailFetcher {
	return &detailFetcher{
		pages:  make(map[string]string),
		errs:   make(map[string]error),
		counts: make(map[string]int),
	}
}

func (f *detailFetcher) FetchPage(ctx context.Context, url string, timeout time.Duration) (*goquery.Document, error) {
	current := atomic.AddInt64(&f.inFlight, 1)
	defer atomic.AddInt64(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt64(&f.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&f.peak, peak, current) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.counts[url]++
	err := f.errs[url]
	html := f.pages[url]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

func (f *detailFetcher) Cleanup() {}

func (f *detailFetcher) IsHealthy() bool { return true }

func (f *detailFetcher) fetchCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[url]
}

func newTestScheduler(fetcher scraper.PageFetcher, concurrency int) *Scheduler {
	cfg := &config.Config{}
	cfg.Enrich.Concurrency = concurrency
	cfg.Enrich.ItemTimeout = time.Second
	cfg.Enrich.RetryBackoff = time.Millisecond
	return NewScheduler(fetcher, cfg)
}

func missingItem(id, url string) *models.ListingRecord {
	return &models.ListingRecord{
		ID:          id,
		URL:         url,
		Title:       "Machine " + id,
		PriceSource: models.PriceSourceMissing,
	}
}

const pricedDetail = `<html><head><meta itemprop="price" content="15000"></head><body></body></html>`

func TestEnrichAllResolvesMissingPrices(t *testing.T) {
	fetcher := newDetailFetcher()
	fetcher.pages["https://example.com/a--id1.htm"] = pricedDetail
	fetcher.pages["https://example.com/b--id2.htm"] = `<html><body><span>Prijs op aanvraag</span></body></html>`
	fetcher.pages["https://example.com/c--id3.htm"] = `<html><body><p>No price anywhere</p></body></html>`

	items := []*models.ListingRecord{
		missingItem("1", "https://example.com/a--id1.htm"),
		missingItem("2", "https://example.com/b--id2.htm"),
		missingItem("3", "https://example.com/c--id3.htm"),
	}

	scheduler := newTestScheduler(fetcher, 2)
	processed := scheduler.EnrichAll(context.Background(), items, nil)

	assert.Equal(t, 3, processed)

	require.NotNil(t, items[0].Price)
	assert.Equal(t, 15000, *items[0].Price)
	assert.Equal(t, models.PriceSourceDetailMeta, items[0].PriceSource)

	assert.Nil(t, items[1].Price)
	assert.Equal(t, models.PriceSourceOnRequest, items[1].PriceSource)

	assert.Nil(t, items[2].Price)
	assert.Equal(t, models.PriceSourceMissing, items[2].PriceSource)
}

func TestEnrichAllSkipsTerminalItems(t *testing.T) {
	fetcher := newDetailFetcher()
	fetcher.pages["https://example.com/a--id1.htm"] = pricedDetail

	priced := missingItem("2", "https://example.com/b--id2.htm")
	priced.SetPrice(9000, models.PriceSourceCardDOM)
	onRequest := missingItem("3", "https://example.com/c--id3.htm")
	onRequest.PriceSource = models.PriceSourceOnRequest

	items := []*models.ListingRecord{
		missingItem("1", "https://example.com/a--id1.htm"),
		priced,
		onRequest,
	}

	scheduler := newTestScheduler(fetcher, 2)
	processed := scheduler.EnrichAll(context.Background(), items, nil)

	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, fetcher.fetchCount("https://example.com/a--id1.htm"))
	assert.Zero(t, fetcher.fetchCount("https://example.com/b--id2.htm"))
	assert.Zero(t, fetcher.fetchCount("https://example.com/c--id3.htm"))
	assert.Equal(t, 9000, *priced.Price)
	assert.Equal(t, models.PriceSourceCardDOM, priced.PriceSource)
}

func TestEnrichAllRetriesTimeoutOnce(t *testing.T) {
	url := "https://example.com/slow--id1.htm"
	fetcher := newDetailFetcher()
	fetcher.errs[url] = scraper.NewTimeoutError(url, context.DeadlineExceeded)

	item := missingItem("1", url)
	scheduler := newTestScheduler(fetcher, 1)
	scheduler.EnrichAll(context.Background(), []*models.ListingRecord{item}, nil)

	// One attempt plus exactly one retry.
	assert.Equal(t, 2, fetcher.fetchCount(url))
	assert.Nil(t, item.Price)
	assert.Equal(t, models.PriceSourceDetailTimeout, item.PriceSource)
}

func TestEnrichAllNonTimeoutErrorDoesNotRetry(t *testing.T) {
	url := "https://example.com/broken--id1.htm"
	fetcher := newDetailFetcher()
	fetcher.errs[url] = scraper.NewFetchError(url, errors.New("render failed"))

	item := missingItem("1", url)
	scheduler := newTestScheduler(fetcher, 1)
	scheduler.EnrichAll(context.Background(), []*models.ListingRecord{item}, nil)

	assert.Equal(t, 1, fetcher.fetchCount(url))
	assert.Nil(t, item.Price)
	assert.Equal(t, models.PriceSourceDetailError, item.PriceSource)
}

func TestEnrichAllFailureIsolation(t *testing.T) {
	goodURL := "https://example.com/good--id1.htm"
	badURL := "https://example.com/bad--id2.htm"
	fetcher := newDetailFetcher()
	fetcher.pages[goodURL] = pricedDetail
	fetcher.errs[badURL] = scraper.NewFetchError(badURL, errors.New("blocked"))

	items := []*models.ListingRecord{
		missingItem("1", goodURL),
		missingItem("2", badURL),
	}

	scheduler := newTestScheduler(fetcher, 2)
	processed := scheduler.EnrichAll(context.Background(), items, nil)

	// The failed item never poisons the rest of the batch.
	assert.Equal(t, 2, processed)
	require.NotNil(t, items[0].Price)
	assert.Equal(t, models.PriceSourceDetailError, items[1].PriceSource)
}

func TestEnrichAllBoundsConcurrency(t *testing.T) {
	fetcher := newDetailFetcher()
	fetcher.delay = 10 * time.Millisecond

	var items []*models.ListingRecord
	for i := 0; i < 12; i++ {
		url := "https://example.com/machine--id" + string(rune('a'+i)) + ".htm"
		fetcher.pages[url] = pricedDetail
		items = append(items, missingItem(string(rune('a'+i)), url))
	}

	scheduler := newTestScheduler(fetcher, 3)
	processed := scheduler.EnrichAll(context.Background(), items, nil)

	assert.Equal(t, 12, processed)
	assert.LessOrEqual(t, atomic.LoadInt64(&fetcher.peak), int64(3))
}

func TestEnrichAllReportsProgress(t *testing.T) {
	fetcher := newDetailFetcher()
	var items []*models.ListingRecord
	for _, id := range []string{"1", "2", "3"} {
		url := "https://example.com/machine--id" + id + ".htm"
		fetcher.pages[url] = pricedDetail
		items = append(items, missingItem(id, url))
	}

	var mu sync.Mutex
	var seen []int
	total := 0

	scheduler := newTestScheduler(fetcher, 1)
	scheduler.EnrichAll(context.Background(), items, func(processed, t int) {
		mu.Lock()
		seen = append(seen, processed)
		total = t
		mu.Unlock()
	})

	assert.Equal(t, []int{1, 2, 3}, seen)
	assert.Equal(t, 3, total)
}

func TestEnrichAllPriceInvariantHolds(t *testing.T) {
	fetcher := newDetailFetcher()
	fetcher.pages["https://example.com/a--id1.htm"] = pricedDetail
	fetcher.pages["https://example.com/b--id2.htm"] = `<html><body><span>on request</span></body></html>`
	fetcher.errs["https://example.com/c--id3.htm"] = scraper.NewFetchError("https://example.com/c--id3.htm", errors.New("boom"))

	items := []*models.ListingRecord{
		missingItem("1", "https://example.com/a--id1.htm"),
		missingItem("2", "https://example.com/b--id2.htm"),
		missingItem("3", "https://example.com/c--id3.htm"),
	}

	scheduler := newTestScheduler(fetcher, 2)
	scheduler.EnrichAll(context.Background(), items, nil)

	for _, item := range items {
		if item.PriceSource.HasPrice() {
			assert.NotNil(t, item.Price, "source %s must carry a price", item.PriceSource)
		} else {
			assert.Nil(t, item.Price, "source %s must not carry a price", item.PriceSource)
		}
	}
}
