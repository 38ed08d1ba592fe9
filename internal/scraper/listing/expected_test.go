package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadExpectedCount(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "plain count",
			html: `<html><body><h1>142 listings found</h1></body></html>`,
			want: 142,
		},
		{
			name: "dot-grouped thousands",
			html: `<html><body><span>1.234 resultaten</span></body></html>`,
			want: 1234,
		},
		{
			name: "space-grouped thousands",
			html: `<html><body><p>12 500 résultats</p></body></html>`,
			want: 12500,
		},
		{
			name: "singular unit word",
			html: `<html><body><div>1 result</div></body></html>`,
			want: 1,
		},
		{
			name: "german unit word",
			html: `<html><body>230 Anzeigen in dieser Kategorie</body></html>`,
			want: 230,
		},
		{
			name: "minified markup glues adjacent elements",
			html: `<html><body><h1>6 listings</h1><a href="/machine--id1.htm">Machine</a></body></html>`,
			want: 6,
		},
		{
			name: "count split from siblings without whitespace",
			html: `<html><body><main><span>1.234 resultaten</span><div>Sorteer</div></main></body></html>`,
			want: 1234,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReadExpectedCount(mustDoc(t, tt.html))
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestReadExpectedCountAbsent(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "no count phrase",
			html: `<html><body><h1>Excavators</h1><p>Browse our machines</p></body></html>`,
		},
		{
			name: "number without unit word",
			html: `<html><body><p>Built in 1995</p></body></html>`,
		},
		{
			name: "empty document",
			html: `<html><body></body></html>`,
		},
		{
			name: "count phrase inside script is not visible text",
			html: `<html><body><script>var label = "99 listings";</script></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, ReadExpectedCount(mustDoc(t, tt.html)))
		})
	}
}
