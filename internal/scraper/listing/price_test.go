package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/pkg/models"
)

func TestExtractDetailPriceMeta(t *testing.T) {
	html := `<html><head>
		<meta itemprop="price" content="18500">
	</head><body>
		<span class="price">€ 99.999,-</span>
	</body></html>`

	amount, source, ok := ExtractDetailPrice(mustDoc(t, html))

	require.True(t, ok)
	assert.Equal(t, 18500, amount)
	// Structured metadata outranks the visible DOM price.
	assert.Equal(t, models.PriceSourceDetailMeta, source)
}

func TestExtractDetailPriceJSONLD(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{
			name:    "single object with numeric price",
			payload: `{"@type":"Product","offers":{"price":21000}}`,
			want:    21000,
		},
		{
			name:    "string price with grouping",
			payload: `{"@type":"Product","offers":{"price":"21.000,00"}}`,
			want:    21000,
		},
		{
			name:    "array of nodes",
			payload: `[{"@type":"BreadcrumbList"},{"@type":"Product","offers":{"price":7800}}]`,
			want:    7800,
		},
		{
			name:    "nodes under @graph",
			payload: `{"@graph":[{"@type":"WebPage"},{"@type":"Product","offers":{"price":"9500"}}]}`,
			want:    9500,
		},
		{
			name:    "offers as array",
			payload: `{"@type":"Product","offers":[{"price":6400}]}`,
			want:    6400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := `<html><head><script type="application/ld+json">` + tt.payload + `</script></head><body></body></html>`

			amount, source, ok := ExtractDetailPrice(mustDoc(t, html))

			require.True(t, ok)
			assert.Equal(t, tt.want, amount)
			assert.Equal(t, models.PriceSourceDetailJSON, source)
		})
	}
}

func TestExtractDetailPriceSkipsMalformedJSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{not json</script>
		<script type="application/ld+json">{"offers":{"price":4200}}</script>
	</head><body></body></html>`

	amount, source, ok := ExtractDetailPrice(mustDoc(t, html))

	require.True(t, ok)
	assert.Equal(t, 4200, amount)
	assert.Equal(t, models.PriceSourceDetailJSON, source)
}

func TestExtractDetailPriceDOMFallback(t *testing.T) {
	html := `<html><body>
		<div class="detail-price">€ 13.750,-</div>
	</body></html>`

	amount, source, ok := ExtractDetailPrice(mustDoc(t, html))

	require.True(t, ok)
	assert.Equal(t, 13750, amount)
	assert.Equal(t, models.PriceSourceDetailDOM, source)
}

func TestExtractDetailPriceAbsent(t *testing.T) {
	html := `<html><body><h1>Crane</h1><p>Contact the seller.</p></body></html>`

	_, source, ok := ExtractDetailPrice(mustDoc(t, html))

	assert.False(t, ok)
	assert.Equal(t, models.PriceSourceMissing, source)
}

func TestIsPriceOnRequest(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "english phrase",
			html: `<html><body><span class="price">Price on request</span></body></html>`,
			want: true,
		},
		{
			name: "dutch phrase",
			html: `<html><body><span>Prijs op aanvraag</span></body></html>`,
			want: true,
		},
		{
			name: "french phrase mixed case",
			html: `<html><body><span>PRIX SUR DEMANDE</span></body></html>`,
			want: true,
		},
		{
			name: "regular priced page",
			html: `<html><body><span class="price">€ 5.000,-</span></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPriceOnRequest(mustDoc(t, tt.html)))
		})
	}
}
