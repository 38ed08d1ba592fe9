package listing

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"marktscan/pkg/models"
)

// PriceStrategy is one pure extraction attempt against a detail document.
// Strategies are tried in order; the first success wins and its Source
// becomes the record's provenance tag.
type PriceStrategy struct {
	Source  models.PriceSource
	Extract func(doc *goquery.Document) (int, bool)
}

// DetailPriceStrategies returns the ordered strategy chain for detail pages:
// structured metadata, embedded JSON-LD, then free-text DOM selectors.
func DetailPriceStrategies() []PriceStrategy {
	return []PriceStrategy{
		{Source: models.PriceSourceDetailMeta, Extract: extractMetaPrice},
		{Source: models.PriceSourceDetailJSON, Extract: extractJSONLDPrice},
		{Source: models.PriceSourceDetailDOM, Extract: extractDOMPrice},
	}
}

// ExtractDetailPrice runs the strategy chain, first success wins.
func ExtractDetailPrice(doc *goquery.Document) (int, models.PriceSource, bool) {
	for _, strategy := range DetailPriceStrategies() {
		if amount, ok := strategy.Extract(doc); ok {
			return amount, strategy.Source, true
		}
	}
	return 0, models.PriceSourceMissing, false
}

var metaPriceSelectors = []string{
	"meta[itemprop='price']",
	"meta[property='product:price:amount']",
	"meta[property='og:price:amount']",
}

func extractMetaPrice(doc *goquery.Document) (int, bool) {
	for _, selector := range metaPriceSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if amount, ok := ParsePriceAmount(content); ok {
				return amount, true
			}
		}
	}
	return 0, false
}

// extractJSONLDPrice scans embedded structured-data blocks for a nested
// offer price. Blocks may be a single object, an array of objects, or an
// object carrying the nodes under "@graph".
func extractJSONLDPrice(doc *goquery.Document) (int, bool) {
	var amount int
	var found bool

	doc.Find("script[type='application/ld+json']").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		payload := strings.TrimSpace(s.Text())
		if payload == "" || !gjson.Valid(payload) {
			return true
		}

		root := gjson.Parse(payload)
		for _, node := range structuredNodes(root) {
			if price, ok := offerPrice(node); ok {
				amount, found = price, true
				return false
			}
		}
		return true
	})

	return amount, found
}

// structuredNodes flattens the possible JSON-LD shapes into a node list.
func structuredNodes(root gjson.Result) []gjson.Result {
	if root.IsArray() {
		return root.Array()
	}
	if graph := root.Get("@graph"); graph.IsArray() {
		return graph.Array()
	}
	return []gjson.Result{root}
}

func offerPrice(node gjson.Result) (int, bool) {
	for _, path := range []string{"offers.price", "offers.0.price"} {
		v := node.Get(path)
		if !v.Exists() {
			continue
		}
		// Price may be encoded as a number or a formatted string.
		if v.Type == gjson.Number {
			if n := int(v.Float()); n > 0 {
				return n, true
			}
			continue
		}
		if amount, ok := ParsePriceAmount(v.String()); ok {
			return amount, true
		}
	}
	return 0, false
}

var domPriceSelectors = []string{
	"[class*='price'][class*='current']",
	"span[itemprop='price']",
	".price",
	"[class*='price']",
}

func extractDOMPrice(doc *goquery.Document) (int, bool) {
	for _, selector := range domPriceSelectors {
		var amount int
		var found bool
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if a, ok := ParsePriceAmount(s.Text()); ok {
				amount, found = a, true
				return false
			}
			return true
		})
		if found {
			return amount, true
		}
	}
	return 0, false
}

var onRequestPhrases = []string{
	"price on request",
	"on request",
	"prijs op aanvraag",
	"op aanvraag",
	"prix sur demande",
	"preis auf anfrage",
	"p.o.a",
}

// IsPriceOnRequest reports whether the visible body text advertises the
// price as available on request. This is a terminal, non-failure outcome:
// the price stays unknown on purpose.
func IsPriceOnRequest(doc *goquery.Document) bool {
	text := strings.ToLower(cleanText(doc.Find("body").Text()))
	for _, phrase := range onRequestPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}
