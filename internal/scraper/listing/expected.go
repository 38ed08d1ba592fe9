package listing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// expectedCountPattern matches a locale-aware "<number> <unit word>" phrase
// in page text, e.g. "1 234 listings", "1.234 resultaten", "1234 résultats".
var expectedCountPattern = regexp.MustCompile(
	`(?i)(\d{1,3}(?:[.,\s\x{00a0}]\d{3})*|\d+)\s*(?:listings?|results?|résultats?|resultaten|advertenties|annonces|anzeigen)\b`)

// ReadExpectedCount reads the site-reported total-result count from the
// page's visible text. Best effort: absence yields nil, never an error. The
// value is used purely as a reconciliation oracle downstream.
func ReadExpectedCount(doc *goquery.Document) *int {
	scope := doc.Find("body")
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	m := expectedCountPattern.FindStringSubmatch(visibleText(scope))
	if m == nil {
		return nil
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, m[1])

	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

// visibleText joins the scope's text nodes with spaces. Selection.Text()
// concatenates adjacent nodes directly, which glues the unit word of a
// count phrase to the next element's text on minified markup and defeats
// the word boundary in the pattern.
func visibleText(scope *goquery.Selection) string {
	var b strings.Builder

	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				b.WriteString(c.Text())
				b.WriteByte(' ')
			case "script", "style":
			default:
				walk(c)
			}
		})
	}
	walk(scope)

	return b.String()
}
