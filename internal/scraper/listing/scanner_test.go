package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/internal/scraper"
	"marktscan/pkg/models"
)

func newTestScanner(pages map[string]string, errs map[string]error) (*Scanner, *fakeFetcher) {
	fetcher := &fakeFetcher{pages: pages, errs: errs}
	return NewScanner(fetcher, 5*time.Second), fetcher
}

func TestScanPageScopesToMainRegion(t *testing.T) {
	html := `<html><body>
		<nav><a href="/popular--id900.htm">Popular</a></nav>
		<main>
			<ul>
				<li><a href="/excavator--id1.htm">Excavator</a></li>
				<li><a href="/loader--id2.htm">Loader</a></li>
			</ul>
		</main>
		<footer><a href="/promo--id901.htm">Promo</a></footer>
	</body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "1", res.Items[0].ID)
	assert.Equal(t, "2", res.Items[1].ID)
}

func TestScanPageFallsBackWithoutMainRegion(t *testing.T) {
	html := `<html><body>
		<div class="results">
			<a href="/excavator--id1.htm">Excavator</a>
			<a href="/about">About us</a>
			<a href="/loader--id2.htm">Loader</a>
		</div>
	</body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	// The non-listing link is dropped by the URL shape filter.
	assert.Equal(t, "1", res.Items[0].ID)
	assert.Equal(t, "2", res.Items[1].ID)
}

func TestScanPageFirstOccurrenceWins(t *testing.T) {
	html := `<html><body><main>
		<li class="card">
			<span class="price">€ 10.000,-</span>
			<a href="/excavator--id7.htm">Excavator</a>
		</li>
		<li>
			<a href="/excavator-duplicate--id7.htm">Excavator again</a>
		</li>
	</main></body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	assert.Equal(t, "7", item.ID)
	require.NotNil(t, item.Price)
	assert.Equal(t, 10000, *item.Price)
	assert.Equal(t, models.PriceSourceCardDOM, item.PriceSource)
}

func TestScanPagePlaceholderTitle(t *testing.T) {
	html := `<html><body><main>
		<a href="/--id33.htm"><img src="/thumb.jpg"></a>
	</main></body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Listing 33", res.Items[0].Title)
}

func TestScanPageResolvesRelativeLinks(t *testing.T) {
	html := `<html><body><main>
		<a href="loader--id5.htm">Loader</a>
	</main></body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/machines/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/machines/results")

	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "https://example.com/machines/loader--id5.htm", res.Items[0].URL)
}

func TestScanPageEmptyIsValid(t *testing.T) {
	html := `<html><body><main><p>0 listings</p></main></body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestScanPageReadsExpectedCount(t *testing.T) {
	html := `<html><body><main>
		<h1>142 listings</h1>
		<a href="/excavator--id1.htm">Excavator</a>
	</main></body></html>`

	scanner, _ := newTestScanner(map[string]string{"https://example.com/results": html}, nil)
	res, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.NoError(t, err)
	require.NotNil(t, res.ExpectedCount)
	assert.Equal(t, 142, *res.ExpectedCount)
}

func TestScanPagePropagatesFetchError(t *testing.T) {
	scanner, _ := newTestScanner(nil, map[string]error{
		"https://example.com/results": scraper.NewTimeoutError("https://example.com/results", context.DeadlineExceeded),
	})

	_, err := scanner.ScanPage(context.Background(), "https://example.com/results")

	require.Error(t, err)
	assert.True(t, scraper.IsTimeout(err))
}
