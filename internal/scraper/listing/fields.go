package listing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"marktscan/pkg/models"
)

// amountPattern captures a grouped integer amount with an optional decimal
// fraction, which is discarded (prices are whole units of the site's base
// currency).
var amountPattern = regexp.MustCompile(`(\d{1,3}(?:[.,\s\x{00a0}]\d{3})+|\d+)(?:[.,]\d{1,2})?`)

// ParsePriceAmount extracts a positive integer amount from free-form price
// text such as "€ 12.500,-" or "12,500". ok=false when no usable amount is
// present.
func ParsePriceAmount(text string) (int, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])

	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// CardFields is the best-effort field set extracted from one result card.
// Absent fields stay at their zero values; extraction never fails.
type CardFields struct {
	Title       string
	Price       *int
	PriceSource models.PriceSource
	Country     *string
	IsSponsored bool
}

// card-level selector cascades, first non-empty match wins
var (
	cardTitleSelectors = []string{
		"[class*='title']",
		"h2, h3",
		"[itemprop='name']",
	}
	cardPriceSelectors = []string{
		"[class*='price']",
		"[itemprop='price']",
	}
	cardCountrySelectors = []string{
		"[class*='country']",
		"[class*='location']",
	}
)

// ExtractCardFields reads the inline fields of a single listing card. The
// card is the nearest enclosing list-item or article of the listing link,
// falling back to the link element itself.
func ExtractCardFields(link *goquery.Selection) CardFields {
	card := link.Closest("li, article, [class*='listing'], [class*='card']")
	if card.Length() == 0 {
		card = link
	}

	fields := CardFields{PriceSource: models.PriceSourceMissing}

	fields.Title = firstText(card, cardTitleSelectors)
	if fields.Title == "" {
		fields.Title = cleanText(link.Text())
	}

	// Machine-readable card price first, visible text second.
	if content, ok := card.Find("[data-price]").First().Attr("data-price"); ok {
		if amount, ok := ParsePriceAmount(content); ok {
			fields.Price = &amount
			fields.PriceSource = models.PriceSourceCardMeta
		}
	}
	if fields.Price == nil {
		if text := firstText(card, cardPriceSelectors); text != "" {
			if amount, ok := ParsePriceAmount(text); ok {
				fields.Price = &amount
				fields.PriceSource = models.PriceSourceCardDOM
			}
		}
	}

	if country := firstText(card, cardCountrySelectors); country != "" {
		fields.Country = &country
	}

	fields.IsSponsored = card.Find("[class*='sponsored'], [class*='premium'], [class*='featured']").Length() > 0

	return fields
}

// firstText returns the first non-empty trimmed text among the selectors.
func firstText(scope *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		if text := cleanText(scope.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
