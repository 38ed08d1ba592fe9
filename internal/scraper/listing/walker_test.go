package listing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/internal/config"
	"marktscan/internal/scraper"
)

const walkBase = "https://example.com/results"

func newTestWalker(pages map[string]string, errs map[string]error) *Walker {
	cfg := &config.Config{}
	cfg.Walker.DisableDelay = true

	scanner, _ := newTestScanner(pages, errs)
	return NewWalker(scanner, cfg)
}

// resultPage renders a result page advertising the given total, with one
// listing link per id.
func resultPage(expected int, ids ...int) string {
	page := "<html><body><main>"
	if expected > 0 {
		page += fmt.Sprintf("<h1>%d listings</h1>", expected)
	}
	for _, id := range ids {
		page += fmt.Sprintf(`<a href="/machine--id%d.htm">Machine %d</a>`, id, id)
	}
	return page + "</main></body></html>"
}

func TestWalkMergesPagesFirstWriteWins(t *testing.T) {
	pages := map[string]string{
		pageURL(walkBase, 1, 3): resultPage(5, 1, 2, 3),
		pageURL(walkBase, 2, 3): resultPage(5, 3, 4, 5),
	}

	walker := newTestWalker(pages, nil)
	res, err := walker.Walk(context.Background(), walkBase, 3, 10)

	require.NoError(t, err)
	assert.Equal(t, 5, res.Count)
	assert.Equal(t, 2, res.PagesScraped)
	assert.Equal(t, 2, res.TotalPages)
	assert.False(t, res.Partial)
	assert.Nil(t, res.Warning)

	var ids []string
	for _, item := range res.Items {
		ids = append(ids, item.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, ids)
}

func TestWalkStopsAtMaxPages(t *testing.T) {
	pages := map[string]string{
		pageURL(walkBase, 1, 100): resultPage(250, 1, 2),
		pageURL(walkBase, 2, 100): resultPage(250, 3, 4),
	}

	walker := newTestWalker(pages, nil)
	res, err := walker.Walk(context.Background(), walkBase, 100, 2)

	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalPages)
	assert.Equal(t, 2, res.PagesScraped)
	assert.True(t, res.Partial)
}

func TestWalkSinglePageWithoutAdvertisedTotal(t *testing.T) {
	pages := map[string]string{
		pageURL(walkBase, 1, 30): resultPage(0, 1, 2),
	}

	walker := newTestWalker(pages, nil)
	res, err := walker.Walk(context.Background(), walkBase, 30, 5)

	require.NoError(t, err)
	assert.Nil(t, res.ExpectedCount)
	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 2, res.Count)
	assert.False(t, res.Partial)
}

func TestWalkFirstPageFailureIsFatal(t *testing.T) {
	errs := map[string]error{
		pageURL(walkBase, 1, 30): scraper.NewFetchError(walkBase, errors.New("blocked")),
	}

	walker := newTestWalker(nil, errs)
	res, err := walker.Walk(context.Background(), walkBase, 30, 5)

	require.Error(t, err)
	assert.Nil(t, res)

	var fe *scraper.FetchError
	assert.True(t, errors.As(err, &fe))
}

func TestWalkLaterPageFailureEndsEarly(t *testing.T) {
	pages := map[string]string{
		pageURL(walkBase, 1, 2): resultPage(6, 1, 2),
		pageURL(walkBase, 2, 2): resultPage(6, 3, 4),
	}
	errs := map[string]error{
		pageURL(walkBase, 3, 2): scraper.NewTimeoutError(walkBase, context.DeadlineExceeded),
	}

	walker := newTestWalker(pages, errs)
	res, err := walker.Walk(context.Background(), walkBase, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, 4, res.Count)
	assert.Equal(t, 2, res.PagesScraped)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.Partial)
	require.NotNil(t, res.Warning)
	assert.Contains(t, *res.Warning, "page 3 failed")
}

func TestWalkHonorsCancellation(t *testing.T) {
	cfg := &config.Config{}
	cfg.Walker.DelayMin = 50 * time.Millisecond
	cfg.Walker.DelayMax = 60 * time.Millisecond

	pages := map[string]string{
		pageURL(walkBase, 1, 2): resultPage(10, 1, 2),
	}
	scanner, _ := newTestScanner(pages, nil)
	walker := NewWalker(scanner, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first page succeeds; the delay before page 2 observes the
	// cancelled context.
	res, err := walker.Walk(ctx, walkBase, 2, 10)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPageURLSetsPaginationParams(t *testing.T) {
	got := pageURL("https://example.com/results?country=nl", 3, 50)

	assert.Contains(t, got, "page=3")
	assert.Contains(t, got, "pageSize=50")
	assert.Contains(t, got, "country=nl")
}
