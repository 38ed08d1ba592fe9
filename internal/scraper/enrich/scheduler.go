package enrich

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/internal/scraper"
	"marktscan/internal/scraper/listing"
	"marktscan/pkg/models"
)

// ProgressFunc is invoked after each item finishes, with the running
// processed count and the total number of items scheduled.
type ProgressFunc func(processed, total int)

// Scheduler resolves missing prices by visiting detail pages with a fixed
// number of concurrent workers.
type Scheduler struct {
	fetcher      scraper.PageFetcher
	concurrency  int
	itemTimeout  time.Duration
	retryBackoff time.Duration
	logger       types.Logger
}

// NewScheduler creates a scheduler using the enrichment settings from config.
func NewScheduler(fetcher scraper.PageFetcher, cfg *config.Config) *Scheduler {
	concurrency := cfg.Enrich.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		fetcher:      fetcher,
		concurrency:  concurrency,
		itemTimeout:  cfg.Enrich.ItemTimeout,
		retryBackoff: cfg.Enrich.RetryBackoff,
		logger:       logging.GetGlobalLogger(),
	}
}

// EnrichAll visits the detail page of every item whose price is still
// unresolved and mutates the records in place. Items that already carry a
// price or a terminal source are skipped. Each item gets one retry on
// timeout; any other fetch failure marks just that item and never aborts
// the batch. Returns the number of items processed.
func (s *Scheduler) EnrichAll(ctx context.Context, items []*models.ListingRecord, progress ProgressFunc) int {
	var pending []*models.ListingRecord
	for _, item := range items {
		if item.PriceSource == models.PriceSourceMissing {
			pending = append(pending, item)
		}
	}

	total := len(pending)
	if total == 0 {
		return 0
	}

	jobs := make(chan *models.ListingRecord)
	var processed int64
	var wg sync.WaitGroup

	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range jobs {
				s.enrichOne(ctx, item)
				done := int(atomic.AddInt64(&processed, 1))
				if progress != nil {
					progress(done, total)
				}
			}
		}()
	}

	for _, item := range pending {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return int(atomic.LoadInt64(&processed))
		case jobs <- item:
		}
	}
	close(jobs)
	wg.Wait()

	s.logger.Info("Enrichment pass finished", map[string]interface{}{
		"scheduled": total,
		"processed": atomic.LoadInt64(&processed),
	})

	return int(atomic.LoadInt64(&processed))
}

// enrichOne resolves a single item's price from its detail page. Mutates
// the record in place; never returns an error so one bad listing cannot
// poison its batch.
func (s *Scheduler) enrichOne(ctx context.Context, item *models.ListingRecord) {
	doc, err := s.fetcher.FetchPage(ctx, item.URL, s.itemTimeout)
	if err != nil && scraper.IsTimeout(err) {
		// One retry after a short backoff, timeouts only.
		if waitErr := s.wait(ctx); waitErr != nil {
			item.PriceSource = models.PriceSourceDetailTimeout
			return
		}
		doc, err = s.fetcher.FetchPage(ctx, item.URL, s.itemTimeout)
	}
	if err != nil {
		if scraper.IsTimeout(err) {
			item.PriceSource = models.PriceSourceDetailTimeout
		} else {
			item.PriceSource = models.PriceSourceDetailError
		}
		s.logger.Debug("Detail fetch failed", map[string]interface{}{
			"id":     item.ID,
			"source": string(item.PriceSource),
			"error":  err.Error(),
		})
		return
	}

	if amount, source, ok := listing.ExtractDetailPrice(doc); ok {
		item.SetPrice(amount, source)
		return
	}
	if listing.IsPriceOnRequest(doc) {
		item.PriceSource = models.PriceSourceOnRequest
	}
	// No price and no on-request marker: the source stays missing.
}

func (s *Scheduler) wait(ctx context.Context) error {
	timer := time.NewTimer(s.retryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
