package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{
			name:   "detail URL with slug",
			url:    "https://example.com/machines/tracked-excavator--id8472913.htm",
			wantID: "8472913",
			wantOK: true,
		},
		{
			name:   "query string does not change the id",
			url:    "https://example.com/machines/tracked-excavator--id8472913.htm?utm_source=mail",
			wantID: "8472913",
			wantOK: true,
		},
		{
			name:   "marker is case-insensitive",
			url:    "https://example.com/item--ID42.HTM",
			wantID: "42",
			wantOK: true,
		},
		{
			name:   "relative URL",
			url:    "/wheel-loader--id100.htm",
			wantID: "100",
			wantOK: true,
		},
		{
			name:   "single dash is not the marker",
			url:    "https://example.com/item-id42.htm",
			wantOK: false,
		},
		{
			name:   "missing .htm suffix",
			url:    "https://example.com/item--id42",
			wantOK: false,
		},
		{
			name:   "non-numeric id",
			url:    "https://example.com/item--idabc.htm",
			wantOK: false,
		},
		{
			name:   "empty string",
			url:    "",
			wantOK: false,
		},
		{
			name:   "category page without marker",
			url:    "https://example.com/machines/excavators.htm",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractID(tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestExtractIDSameListingAcrossVariants(t *testing.T) {
	a, okA := ExtractID("https://example.com/old-slug--id555.htm")
	b, okB := ExtractID("https://example.com/new-slug--id555.htm?page=3")

	assert.True(t, okA)
	assert.True(t, okB)
	assert.Equal(t, a, b)
}
