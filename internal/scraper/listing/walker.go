package listing

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"strconv"
	"time"

	"marktscan/internal/config"
	"marktscan/internal/logging"
	"marktscan/internal/logging/types"
	"marktscan/pkg/models"
)

// Walker drives the page-by-page scan of a result set, merging per-page
// items into one ordered batch.
type Walker struct {
	scanner      *Scanner
	delayMin     time.Duration
	delayMax     time.Duration
	disableDelay bool
	logger       types.Logger
}

// NewWalker creates a walker using the politeness settings from config.
func NewWalker(scanner *Scanner, cfg *config.Config) *Walker {
	return &Walker{
		scanner:      scanner,
		delayMin:     cfg.Walker.DelayMin,
		delayMax:     cfg.Walker.DelayMax,
		disableDelay: cfg.Walker.DisableDelay,
		logger:       logging.GetGlobalLogger(),
	}
}

// Walk scans up to maxPages result pages starting from baseURL and merges
// the items by listing id, first occurrence winning. The first page must
// succeed; a failure on a later page ends the walk early with whatever was
// collected so far and marks the result partial.
func (w *Walker) Walk(ctx context.Context, baseURL string, pageSize, maxPages int) (*models.ScrapeResult, error) {
	first, err := w.scanner.ScanPage(ctx, pageURL(baseURL, 1, pageSize))
	if err != nil {
		return nil, err
	}

	merged := newBatch()
	merged.add(first.Items)

	totalPages := 1
	if first.ExpectedCount != nil && *first.ExpectedCount > 0 {
		totalPages = (*first.ExpectedCount + pageSize - 1) / pageSize
	}

	pagesToWalk := totalPages
	if maxPages < pagesToWalk {
		pagesToWalk = maxPages
	}

	pagesScraped := 1
	var warning *string

	for page := 2; page <= pagesToWalk; page++ {
		if err := w.politeDelay(ctx); err != nil {
			return nil, err
		}

		res, err := w.scanner.ScanPage(ctx, pageURL(baseURL, page, pageSize))
		if err != nil {
			w.logger.Warn("Page scan failed, ending walk early", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			msg := fmt.Sprintf("page %d failed: %v; returning %d pages", page, err, pagesScraped)
			warning = &msg
			break
		}

		merged.add(res.Items)
		pagesScraped++
	}

	result := &models.ScrapeResult{
		ExpectedCount: first.ExpectedCount,
		Count:         len(merged.items),
		PageSize:      pageSize,
		PagesScraped:  pagesScraped,
		TotalPages:    totalPages,
		Partial:       pagesScraped != totalPages,
		Warning:       warning,
		Items:         merged.items,
	}

	w.logger.Info("Walk finished", map[string]interface{}{
		"pages_scraped": pagesScraped,
		"total_pages":   totalPages,
		"items":         result.Count,
		"partial":       result.Partial,
	})

	return result, nil
}

// politeDelay sleeps a jittered interval between page fetches, honoring
// context cancellation.
func (w *Walker) politeDelay(ctx context.Context) error {
	if w.disableDelay {
		return nil
	}

	span := w.delayMax - w.delayMin
	delay := w.delayMin
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// batch is an id-keyed accumulator preserving first-seen order.
type batch struct {
	seen  map[string]bool
	items []*models.ListingRecord
}

func newBatch() *batch {
	return &batch{seen: make(map[string]bool)}
}

func (b *batch) add(items []*models.ListingRecord) {
	for _, item := range items {
		if b.seen[item.ID] {
			continue
		}
		b.seen[item.ID] = true
		b.items = append(b.items, item)
	}
}

// pageURL appends pagination parameters to the base result URL.
func pageURL(base string, page, pageSize int) string {
	parsed, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := parsed.Query()
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
