package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marktscan/pkg/models"
)

func TestParsePriceAmount(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   int
		wantOK bool
	}{
		{name: "euro with dot grouping and decimal dash", text: "€ 12.500,-", want: 12500, wantOK: true},
		{name: "comma grouping", text: "12,500", want: 12500, wantOK: true},
		{name: "plain integer", text: "4750", want: 4750, wantOK: true},
		{name: "decimal fraction is discarded", text: "1.250,50", want: 1250, wantOK: true},
		{name: "surrounding text", text: "Price: 899 EUR excl. VAT", want: 899, wantOK: true},
		{name: "no digits", text: "on request", wantOK: false},
		{name: "empty", text: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePriceAmount(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractCardFields(t *testing.T) {
	html := `<html><body><ul>
		<li class="listing-card">
			<span class="sponsored-badge">Top</span>
			<h3 class="card-title">Tracked excavator CAT 320</h3>
			<span class="card-price">€ 45.000,-</span>
			<span class="card-country">Netherlands</span>
			<a href="/cat-320--id1.htm">View</a>
		</li>
	</ul></body></html>`

	link := mustDoc(t, html).Find("a").First()
	fields := ExtractCardFields(link)

	assert.Equal(t, "Tracked excavator CAT 320", fields.Title)
	require.NotNil(t, fields.Price)
	assert.Equal(t, 45000, *fields.Price)
	assert.Equal(t, models.PriceSourceCardDOM, fields.PriceSource)
	require.NotNil(t, fields.Country)
	assert.Equal(t, "Netherlands", *fields.Country)
	assert.True(t, fields.IsSponsored)
}

func TestExtractCardFieldsMetaPriceWinsOverText(t *testing.T) {
	html := `<html><body><article>
		<h2>Wheel loader</h2>
		<span data-price="32500">€ 32.500,-</span>
		<a href="/loader--id2.htm">View</a>
	</article></body></html>`

	link := mustDoc(t, html).Find("a").First()
	fields := ExtractCardFields(link)

	require.NotNil(t, fields.Price)
	assert.Equal(t, 32500, *fields.Price)
	assert.Equal(t, models.PriceSourceCardMeta, fields.PriceSource)
	assert.False(t, fields.IsSponsored)
}

func TestExtractCardFieldsBareLink(t *testing.T) {
	html := `<html><body><a href="/dump-truck--id3.htm">Dump truck Volvo A25</a></body></html>`

	link := mustDoc(t, html).Find("a").First()
	fields := ExtractCardFields(link)

	// No card wrapper: the link text is the only title source.
	assert.Equal(t, "Dump truck Volvo A25", fields.Title)
	assert.Nil(t, fields.Price)
	assert.Equal(t, models.PriceSourceMissing, fields.PriceSource)
	assert.Nil(t, fields.Country)
}

func TestExtractCardFieldsUnpricedCard(t *testing.T) {
	html := `<html><body><li class="listing">
		<h3 class="title">Crane</h3>
		<span class="price">Price on request</span>
		<a href="/crane--id4.htm">View</a>
	</li></body></html>`

	link := mustDoc(t, html).Find("a").First()
	fields := ExtractCardFields(link)

	assert.Nil(t, fields.Price)
	assert.Equal(t, models.PriceSourceMissing, fields.PriceSource)
}
